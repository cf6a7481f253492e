package model

import "time"

// CitationEdge records that a page linked to a file, forming one edge of the
// citation graph. Every FileArtifact must have at least one CitationEdge
// whose FileURL matches it.
type CitationEdge struct {
	FileURL            string    `json:"file_url"`
	ParentPageURL      string    `json:"parent_page_url"`
	SuggestedType      string    `json:"suggested_type"`
	IsDirectFile       bool      `json:"is_direct_file"`
	FileType           string    `json:"file_type,omitempty"`
	Domain             string    `json:"domain"`
	IsGovernmentDomain bool      `json:"is_government_domain"`
	RecordedAt         time.Time `json:"recorded_at"`
}
