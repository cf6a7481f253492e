package fetcher

import (
	"context"

	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/pkg/failure"
	"github.com/boltoncivic/crawlctl/pkg/retry"
)

// Fetcher performs one polite, retried HTTP fetch and returns the raw
// resource. Unlike an HTML-only crawler, a Fetcher here must succeed for
// any content type the pipeline is asked to ingest: HTML pages, CSV, PDF,
// Excel workbooks, and plain text.
type Fetcher interface {
	Fetch(ctx context.Context, param FetchParam, retryParam retry.RetryParam) (model.FetchResult, failure.ClassifiedError)
}
