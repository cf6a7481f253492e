// Package citation is the Citation Service: it classifies a file URL by
// pattern into a suggested transparency category and maintains the
// queryable graph of which page cited which file.
package citation

import (
	"net/url"
	"strings"
)

// directFileExtensions is the closed set isDirectFile checks a URL's
// suffix against.
var directFileExtensions = []string{".csv", ".xlsx", ".xls", ".pdf", ".txt"}

// Analysis is the pure, URL-pattern-derived classification of a single file
// URL, independent of any crawl state.
type Analysis struct {
	SuggestedType      string
	IsDirectFile       bool
	FileType           string
	Domain             string
	IsGovernmentDomain bool
}

// Analyze classifies rawURL by hostname and path pattern, per the external
// interface's suggestedType rules: a moderngov hostname or a /meetings/
// path is meetings; a /transparency/ path or a csv/xlsx extension is
// transparency; a paplanning hostname or an /application/ path is
// planning; everything else is services. A URL that fails to parse or
// carries no host is classified as other.
func Analyze(rawURL string) Analysis {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Analysis{SuggestedType: "other"}
	}

	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.Path)
	ext := extensionOf(path)
	isDirectFile := isDirectFileExtension(ext)

	var suggestedType string
	switch {
	case strings.Contains(host, "moderngov") || strings.Contains(path, "/meetings/"):
		suggestedType = "meetings"
	case strings.Contains(path, "/transparency/") || ext == ".csv" || ext == ".xlsx":
		suggestedType = "transparency"
	case strings.Contains(host, "paplanning") || strings.Contains(path, "/application/"):
		suggestedType = "planning"
	default:
		suggestedType = "services"
	}

	fileType := ""
	if isDirectFile {
		fileType = strings.TrimPrefix(ext, ".")
	}

	return Analysis{
		SuggestedType:      suggestedType,
		IsDirectFile:       isDirectFile,
		FileType:           fileType,
		Domain:             host,
		IsGovernmentDomain: strings.HasSuffix(host, ".gov.uk"),
	}
}

func extensionOf(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx == -1 {
		return ""
	}
	return path[idx:]
}

func isDirectFileExtension(ext string) bool {
	for _, e := range directFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
