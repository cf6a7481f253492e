package frontier

/*
 Frontier - manages crawl state & ordering
*/

import (
	"net/url"
	"time"
)

// CrawlToken is the Frontier's answer to "what should be fetched next":
// a URL plus the ordering metadata the rest of the pipeline needs to build
// a model.FrontierItem once fetched. It contains no policy decisions.
type CrawlToken struct {
	url      url.URL
	depth    int
	category string
	priority int
}

func NewCrawlToken(u url.URL, depth int, category string, priority int) CrawlToken {
	return CrawlToken{
		url:      u,
		depth:    depth,
		category: category,
		priority: priority,
	}
}

func (c CrawlToken) URL() url.URL { return c.url }

func (c CrawlToken) Depth() int { return c.depth }

func (c CrawlToken) Category() string { return c.category }

func (c CrawlToken) Priority() int { return c.priority }

// CrawlAdmissionCandidate represents a URL that has already passed
// allowlist and robots.txt checks upstream (Seed Registry or Link
// Extractor). The Frontier MUST treat it as admitted and must not
// re-evaluate those decisions; it only applies depth limits, dedup, and
// per-host quota.
type CrawlAdmissionCandidate struct {
	targetURL         url.URL
	sourceContext     SourceContext
	discoveryMetadata DiscoveryMetadata
	category          string
	priority          int
}

func NewCrawlAdmissionCandidate(
	targetURL url.URL,
	sourceContext SourceContext,
	discoveryMetadata DiscoveryMetadata,
	category string,
	priority int,
) CrawlAdmissionCandidate {
	return CrawlAdmissionCandidate{
		targetURL:         targetURL,
		sourceContext:     sourceContext,
		discoveryMetadata: discoveryMetadata,
		category:          category,
		priority:          priority,
	}
}

func (c CrawlAdmissionCandidate) TargetURL() url.URL { return c.targetURL }

func (c CrawlAdmissionCandidate) SourceContext() SourceContext { return c.sourceContext }

func (c CrawlAdmissionCandidate) DiscoveryMetadata() DiscoveryMetadata { return c.discoveryMetadata }

func (c CrawlAdmissionCandidate) Category() string { return c.category }

func (c CrawlAdmissionCandidate) Priority() int { return c.priority }

type SourceContext string

const (
	SourceSeed  SourceContext = "Seed"
	SourceCrawl SourceContext = "Crawl"
)

type DiscoveryMetadata struct {
	// depth of the URL relative to its seed; seed URLs are depth 0.
	depth         int
	delayOverride *time.Duration
}

func NewDiscoveryMetadata(depth int, delayOverride *time.Duration) DiscoveryMetadata {
	return DiscoveryMetadata{
		depth:         depth,
		delayOverride: delayOverride,
	}
}

func (d DiscoveryMetadata) Depth() int { return d.depth }

func (d DiscoveryMetadata) DelayOverride() *time.Duration { return d.delayOverride }
