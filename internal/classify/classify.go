// Package classify decides what a fetched resource is (ResourceKind) and
// which transparency category it belongs to. Both decisions are pure and
// deterministic: same FetchResult in, same answer out, no network or disk
// access.
package classify

import (
	"net/url"
	"strings"

	"github.com/boltoncivic/crawlctl/internal/model"
)

// contentTypeKinds is the explicit Content-Type allowlist, decision step 1.
// Matching is by substring against the header value lowercased, so
// "text/html; charset=utf-8" still matches "text/html".
var contentTypeKinds = []struct {
	substr string
	kind   model.ResourceKind
}{
	{"text/html", model.ResourceHTMLPage},
	{"application/xhtml", model.ResourceHTMLPage},
	{"application/pdf", model.ResourcePDF},
	{"text/csv", model.ResourceCSV},
	{"application/csv", model.ResourceCSV},
	{"application/vnd.ms-excel", model.ResourceExcel},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml", model.ResourceExcel},
	{"text/plain", model.ResourceText},
}

// extensionKinds is the URL-suffix table, decision step 2.
var extensionKinds = map[string]model.ResourceKind{
	".pdf":  model.ResourcePDF,
	".csv":  model.ResourceCSV,
	".xlsx": model.ResourceExcel,
	".xls":  model.ResourceExcel,
	".txt":  model.ResourceText,
	".html": model.ResourceHTMLPage,
	".htm":  model.ResourceHTMLPage,
}

// Classify determines the ResourceKind of a fetched resource using a fixed
// decision order: explicit Content-Type header, then URL suffix, then an
// HTML <meta>/doctype sniff of the body. A resource matching none of these
// is ResourceOther and is dropped by the caller.
func Classify(result model.FetchResult) model.ResourceKind {
	if kind, ok := classifyByContentType(result.ContentType); ok {
		return kind
	}
	if kind, ok := classifyByExtension(result.FinalURL); ok {
		return kind
	}
	if kind, ok := classifyByExtension(result.URL); ok {
		return kind
	}
	if looksLikeHTML(result.Body) {
		return model.ResourceHTMLPage
	}
	return model.ResourceOther
}

func classifyByContentType(contentType string) (model.ResourceKind, bool) {
	if contentType == "" {
		return "", false
	}
	lower := strings.ToLower(contentType)
	for _, entry := range contentTypeKinds {
		if strings.Contains(lower, entry.substr) {
			return entry.kind, true
		}
	}
	return "", false
}

// IsDataFileExtension reports whether rawURL's path ends in one of the
// non-HTML data-file extensions (.pdf, .csv, .xlsx, .xls, .txt). The Link
// Extractor uses this to promote data-file links to the top priority tier
// without needing to fetch them first.
func IsDataFileExtension(rawURL string) bool {
	kind, ok := classifyByExtension(rawURL)
	if !ok {
		return false
	}
	return kind != model.ResourceHTMLPage
}

func classifyByExtension(rawURL string) (model.ResourceKind, bool) {
	if rawURL == "" {
		return "", false
	}
	parsed, err := url.Parse(rawURL)
	path := rawURL
	if err == nil {
		path = parsed.Path
	}
	lower := strings.ToLower(path)
	for ext, kind := range extensionKinds {
		if strings.HasSuffix(lower, ext) {
			return kind, true
		}
	}
	return "", false
}

// looksLikeHTML is the decision-step-3 meta sniff: a cheap prefix/substring
// scan rather than a full parse, since a malformed fragment should still be
// recognized as HTML-shaped.
func looksLikeHTML(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	lower := strings.ToLower(string(head))
	return strings.Contains(lower, "<!doctype html") ||
		strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<head") && strings.Contains(lower, "<meta")
}
