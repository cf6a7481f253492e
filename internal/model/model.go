// Package model holds the data entities that flow through the crawl and
// ingestion pipeline, from seed loading through to storage. Types here are
// plain data: no behavior beyond small derived-value helpers.
package model

import "time"

// SeedEntry is an immutable, load-time-only description of where a domain's
// crawl should start and how much content is expected in each category.
type SeedEntry struct {
	Domain        string         `json:"domain"`
	Category      string         `json:"category"`
	SeedURLs      []string       `json:"seed_urls"`
	ExpectedCount map[string]int `json:"expected_count,omitempty"`
}

// FrontierItem is a candidate URL waiting to be fetched. It is created by the
// Link Extractor or the seed loader and discarded once dequeued for fetch.
type FrontierItem struct {
	URL            string    `json:"url"`
	Depth          int       `json:"depth"`
	Category       string    `json:"category"`
	DiscoveredFrom string    `json:"discovered_from,omitempty"`
	Priority       int       `json:"priority"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// Priority tiers used when ranking FrontierItem for dequeue. Lower values
// are served first.
const (
	PriorityDataFile    = 0
	PrioritySeedExt     = 1
	PriorityGenericHTML = 2
	PriorityOverQuota   = 3
)

// FetchResult is the raw outcome of a single fetch attempt. It is produced
// by the Fetcher, consumed by the Classifier, and never persisted directly.
type FetchResult struct {
	URL          string
	FinalURL     string
	Status       int
	ContentType  string
	Body         []byte
	ResponseTime time.Duration
	FetchedAt    time.Time
	Attempt      int
}

// ResourceKind is the Classifier's decision about what a FetchResult contains.
type ResourceKind string

const (
	ResourceHTMLPage ResourceKind = "html-page"
	ResourcePDF      ResourceKind = "pdf-document"
	ResourceCSV      ResourceKind = "csv-file"
	ResourceExcel    ResourceKind = "excel-file"
	ResourceText     ResourceKind = "text-file"
	ResourceOther    ResourceKind = "other"
)

// PageRecord is a crawled HTML page, written to storage once classified and
// scored.
type PageRecord struct {
	URL           string    `json:"url"`
	ParentURL     string    `json:"parent_url,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	ContentLength int       `json:"content_length"`
	QualityScore  int       `json:"quality_score"`
	CrawledAt     time.Time `json:"crawled_at"`
}

// FileArtifact is a non-HTML file discovered while crawling: the page that
// linked to it and the file itself. Every FileArtifact must have at least
// one matching CitationEdge (see citation.go).
type FileArtifact struct {
	FileURL       string `json:"file_url"`
	ParentPageURL string `json:"parent_page_url"`
	FileType      string `json:"file_type"`
	FileSize      int64  `json:"file_size"`
	Title         string `json:"title,omitempty"`
	Category      string `json:"category"`
}
