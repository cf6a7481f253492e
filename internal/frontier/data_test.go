package frontier_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/boltoncivic/crawlctl/internal/frontier"
)

func mustURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid url %q: %v", raw, err)
	}
	return *u
}

func TestNewCrawlToken(t *testing.T) {
	u := mustURL(t, "https://example.gov.uk/a.pdf")
	token := frontier.NewCrawlToken(u, 2, "transparency", 0)

	if token.URL() != u {
		t.Errorf("URL() = %v, want %v", token.URL(), u)
	}
	if token.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", token.Depth())
	}
	if token.Category() != "transparency" {
		t.Errorf("Category() = %q, want transparency", token.Category())
	}
	if token.Priority() != 0 {
		t.Errorf("Priority() = %d, want 0", token.Priority())
	}
}

func TestCrawlAdmissionCandidate_Accessors(t *testing.T) {
	u := mustURL(t, "https://example.gov.uk/page")
	delay := 500 * time.Millisecond
	candidate := frontier.NewCrawlAdmissionCandidate(
		u,
		frontier.SourceCrawl,
		frontier.NewDiscoveryMetadata(1, &delay),
		"planning",
		2,
	)

	if candidate.TargetURL() != u {
		t.Errorf("TargetURL() = %v, want %v", candidate.TargetURL(), u)
	}
	if candidate.SourceContext() != frontier.SourceCrawl {
		t.Errorf("SourceContext() = %v, want SourceCrawl", candidate.SourceContext())
	}
	if candidate.Category() != "planning" {
		t.Errorf("Category() = %q, want planning", candidate.Category())
	}
	if candidate.Priority() != 2 {
		t.Errorf("Priority() = %d, want 2", candidate.Priority())
	}
	if candidate.DiscoveryMetadata().Depth() != 1 {
		t.Errorf("DiscoveryMetadata().Depth() = %d, want 1", candidate.DiscoveryMetadata().Depth())
	}
	if got := candidate.DiscoveryMetadata().DelayOverride(); got == nil || *got != delay {
		t.Errorf("DiscoveryMetadata().DelayOverride() = %v, want %v", got, delay)
	}
}

func TestDiscoveryMetadata_NilDelayOverride(t *testing.T) {
	meta := frontier.NewDiscoveryMetadata(0, nil)
	if meta.DelayOverride() != nil {
		t.Errorf("DelayOverride() = %v, want nil", meta.DelayOverride())
	}
}
