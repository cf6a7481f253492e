package frontier

/*
Frontier Responsibilities
- Order candidates by priority tier, FIFO within a tier
- Deduplicate URLs against the seenSet for this run
- Track crawl depth and reject candidates past the configured max depth
- Apply a per-host soft cap, demoting over-quota hosts to the lowest tier
- Enforce a hard per-host quota and a hard global cap, rejecting candidates
  once either limit is reached
- Pause dequeuing under storage backpressure

It knows nothing about fetching, classification, or storage.
*/

import (
	"sync"

	"github.com/boltoncivic/crawlctl/internal/config"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/pkg/urlutil"
)

const priorityTierCount = 4

// CrawlFrontier is the concurrency-safe priority frontier described by the
// Crawl Orchestrator. All four priority tiers (model.PriorityDataFile
// through model.PriorityOverQuota) live behind a single mutex: contention is
// low relative to fetch latency, so a single lock is simpler than per-tier
// locks and avoids lock-ordering bugs between Submit and Dequeue.
type CrawlFrontier struct {
	mu         sync.Mutex
	cfg        config.Config
	tiers      [priorityTierCount]*FIFOQueue[CrawlToken]
	seen       Set[string]
	hostCounts map[string]int
	hostQuota  map[string]int
	totalCount int
	paused     bool
}

func NewCrawlFrontier() *CrawlFrontier {
	f := &CrawlFrontier{
		seen:       NewSet[string](),
		hostCounts: make(map[string]int),
		hostQuota:  make(map[string]int),
	}
	for i := range f.tiers {
		f.tiers[i] = NewFIFOQueue[CrawlToken]()
	}
	return f
}

// SetHostQuotas installs the hard per-host admission cap from spec enqueue
// rule 3 (`rejected-quota`): once a host's accepted count reaches its
// quota, further candidates for that host are rejected outright rather than
// merely demoted. quotas is typically the seed registry's per-domain
// expected-record totals; a host absent from the map, or mapped to 0, is
// unbounded. Call before the first Submit.
func (f *CrawlFrontier) SetHostQuotas(quotas map[string]int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hostQuota = quotas
}

func (f *CrawlFrontier) Init(cfg config.Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
}

// Submit admits a candidate into the frontier, returning false without
// enqueuing it if: the candidate is past the configured max depth; its
// normalized URL has already been seen this run; the global `--max-urls`
// cap has been reached; or its host has reached its hard per-host quota
// (rejected-quota, spec enqueue rule 3). A candidate whose host has only
// exceeded the lower per-host soft cap is still admitted, but demoted to
// model.PriorityOverQuota regardless of the priority it arrived with.
func (f *CrawlFrontier) Submit(candidate CrawlAdmissionCandidate) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	depth := candidate.DiscoveryMetadata().Depth()
	if maxDepth := f.cfg.MaxDepth(); maxDepth > 0 && depth > maxDepth {
		return false
	}

	normalized := urlutil.Normalize(candidate.TargetURL())
	key := normalized.String()
	if f.seen.Contains(key) {
		return false
	}

	if maxURLs := f.cfg.MaxURLs(); maxURLs > 0 && f.totalCount >= maxURLs {
		f.seen.Add(key)
		return false
	}

	host := normalized.Hostname()
	if quota := f.hostQuota[host]; quota > 0 && f.hostCounts[host] >= quota {
		f.seen.Add(key)
		return false
	}

	f.seen.Add(key)

	priority := candidate.Priority()
	if softCap := f.cfg.PerHostSoftCap(); softCap > 0 && f.hostCounts[host] >= softCap {
		priority = model.PriorityOverQuota
	}
	f.hostCounts[host]++
	f.totalCount++

	token := NewCrawlToken(candidate.TargetURL(), depth, candidate.Category(), priority)
	f.tiers[priority].Enqueue(token)
	return true
}

// Dequeue selects the highest-priority non-empty tier, FIFO within that
// tier. It returns false on the second value if the frontier is empty or
// currently paused for backpressure.
func (f *CrawlFrontier) Dequeue() (CrawlToken, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var zero CrawlToken
	if f.paused {
		return zero, false
	}

	for _, tier := range f.tiers {
		if token, ok := tier.Dequeue(); ok {
			return token, true
		}
	}
	return zero, false
}

// Size returns the total number of items waiting across every tier.
func (f *CrawlFrontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, tier := range f.tiers {
		total += tier.Size()
	}
	return total
}

// VisitedCount returns the number of distinct normalized URLs admitted (or
// rejected as duplicates) so far this run.
func (f *CrawlFrontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Size()
}

// SetPaused toggles backpressure. The orchestrator calls this when the
// Storage Sink's pending-write queue crosses its soft-cap, and clears it
// once the queue has drained below cap/2.
func (f *CrawlFrontier) SetPaused(paused bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = paused
}

func (f *CrawlFrontier) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

// SeenSnapshot returns the normalized URLs admitted so far, for persisting
// a --resume checkpoint.
func (f *CrawlFrontier) SeenSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.seen))
	for key := range f.seen {
		out = append(out, key)
	}
	return out
}

// RestoreSeen pre-populates the seenSet from a previously persisted
// snapshot, so a --resume run does not re-enqueue already-crawled URLs.
func (f *CrawlFrontier) RestoreSeen(urls []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, key := range urls {
		f.seen.Add(key)
	}
}
