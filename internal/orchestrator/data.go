package orchestrator

import (
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/internal/storage"
)

// fileJob is handed from a fetch worker to a file worker once a fetched
// resource has been classified as something other than an HTML page.
// parentPageURL is the page that linked to result, looked up from the
// Orchestrator's discovery-metadata map rather than carried on the
// frontier.CrawlToken itself, since the Frontier has no notion of "parent".
type fileJob struct {
	result        model.FetchResult
	parentPageURL string
	category      string
}

// Result is everything Run hands back once a crawl stops, whether it ran
// to completion or was cancelled.
type Result struct {
	WriteResults []storage.WriteResult
	Report       model.CoverageReport
	TotalErrors  int
	Cancelled    bool
}
