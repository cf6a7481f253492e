// Package coverage is the Quality & Coverage Telemetry subsystem: it turns
// fetch events and pipeline errors into per-domain statistics and compares
// what was actually extracted against what the seed registry expected.
//
// A Monitor is the only writer of its own state. Every exported method that
// mutates state sends an event on an internal channel and returns
// immediately; a single goroutine launched by Start drains the channel and
// applies events one at a time, so DomainStats and CrawlError entries never
// need their own locks against concurrent writers. Snapshot methods still
// take a mutex, since a reader can run concurrently with that goroutine.
package coverage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boltoncivic/crawlctl/internal/model"
)

// Recorder is the interface the Fetcher (and other pipeline stages) depend
// on to report telemetry. It intentionally carries no return value: a
// telemetry failure must never affect crawl control flow.
type Recorder interface {
	RecordFetch(url, host string, httpStatus int, duration time.Duration, contentType string, retryCount, crawlDepth int, success bool)
	RecordError(record ErrorRecord, domain, category string, kind model.CrawlErrorType, url string)
	RecordArtifact(domain, category, dataType string)
	RecordRedirect(oldURL, newURL string)
	MarkResolved(id string)
}

// Monitor is the Coverage Monitor. Construct with NewMonitor, call Start
// once a context is available, and Stop when the crawl finishes.
type Monitor struct {
	events chan any

	mu        sync.RWMutex
	stats     map[string]*model.DomainStats
	errors    map[string]*model.CrawlError
	actual    map[string]int
	expected  map[string]int
	redirects model.RedirectMap
	done      chan struct{}
	closeOnce sync.Once
}

// NewMonitor builds an idle Monitor. expected maps "domain|category|dataType"
// to the count declared in the seed registry; callers typically build it
// from seedregistry.Registry.Entries() before the crawl starts.
func NewMonitor(expected map[string]int) *Monitor {
	if expected == nil {
		expected = make(map[string]int)
	}
	return &Monitor{
		events:    make(chan any, 256),
		stats:     make(map[string]*model.DomainStats),
		errors:    make(map[string]*model.CrawlError),
		actual:    make(map[string]int),
		expected:  expected,
		redirects: make(model.RedirectMap),
		done:      make(chan struct{}),
	}
}

// Start launches the single-writer goroutine and returns immediately. The
// goroutine exits once ctx is cancelled or Stop is called, whichever comes
// first.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				m.closeOnce.Do(func() { close(m.done) })
				return
			case ev, ok := <-m.events:
				if !ok {
					m.closeOnce.Do(func() { close(m.done) })
					return
				}
				m.apply(ev)
			}
		}
	}()
}

// Stop closes the event channel, letting the writer goroutine drain any
// buffered events before exiting.
func (m *Monitor) Stop() {
	close(m.events)
	<-m.done
}

func (m *Monitor) apply(ev any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e := ev.(type) {
	case fetchEvent:
		s, ok := m.stats[e.host]
		if !ok {
			s = &model.DomainStats{Domain: e.host}
			m.stats[e.host] = s
		}
		s.TotalRequests++
		if e.success {
			s.SuccessfulRequests++
		} else {
			s.FailedRequests++
		}
		if s.TotalRequests == 1 {
			s.AvgResponseTime = e.duration
		} else {
			s.AvgResponseTime = (s.AvgResponseTime*time.Duration(s.TotalRequests-1) + e.duration) / time.Duration(s.TotalRequests)
		}
		s.LastCrawled = time.Now()

	case errorEvent:
		id := model.CrawlErrorID(e.domain, e.kind, e.url)
		ce, ok := m.errors[id]
		if !ok {
			ce = &model.CrawlError{
				ID:        id,
				Type:      e.kind,
				URL:       e.url,
				Domain:    e.domain,
				Category:  e.category,
				Message:   e.record.ErrorString,
				Timestamp: e.record.ObservedAt,
			}
			m.errors[id] = ce
		} else {
			ce.RetryCount++
			ce.Message = e.record.ErrorString
			ce.Timestamp = e.record.ObservedAt
		}
		if s, ok := m.stats[e.domain]; ok {
			s.CommonErrors = appendUnique(s.CommonErrors, string(e.kind))
		}

	case artifactEvent:
		key := coverageKey(e.domain, e.category, e.dataType)
		m.actual[key]++

	case redirectEvent:
		m.redirects[e.oldURL] = e.newURL

	case resolvedEvent:
		if ce, ok := m.errors[e.id]; ok {
			ce.Resolved = true
		}
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func coverageKey(domain, category, dataType string) string {
	return domain + "|" + category + "|" + dataType
}

// RecordFetch reports the outcome of a single fetch attempt.
func (m *Monitor) RecordFetch(url, host string, httpStatus int, duration time.Duration, contentType string, retryCount, crawlDepth int, success bool) {
	m.events <- fetchEvent{
		url:         url,
		host:        host,
		httpStatus:  httpStatus,
		duration:    duration,
		contentType: contentType,
		retryCount:  retryCount,
		crawlDepth:  crawlDepth,
		success:     success,
	}
}

// RecordError reports a pipeline failure for observability only.
func (m *Monitor) RecordError(record ErrorRecord, domain, category string, kind model.CrawlErrorType, url string) {
	m.events <- errorEvent{record: record, domain: domain, category: category, kind: kind, url: url}
}

// RecordArtifact reports that one more item of dataType was successfully
// extracted for domain/category, feeding CoverageMetric.ActualCount.
func (m *Monitor) RecordArtifact(domain, category, dataType string) {
	m.events <- artifactEvent{domain: domain, category: category, dataType: dataType}
}

// RecordRedirect appends oldURL -> newURL to the run's RedirectMap.
func (m *Monitor) RecordRedirect(oldURL, newURL string) {
	m.events <- redirectEvent{oldURL: oldURL, newURL: newURL}
}

// MarkResolved flips the CrawlError identified by id (see
// model.CrawlErrorID) to resolved.
func (m *Monitor) MarkResolved(id string) {
	m.events <- resolvedEvent{id: id}
}

var _ Recorder = (*Monitor)(nil)

// DomainStatsSnapshot returns a point-in-time copy of every domain's stats.
func (m *Monitor) DomainStatsSnapshot() []model.DomainStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.DomainStats, 0, len(m.stats))
	for _, s := range m.stats {
		out = append(out, *s)
	}
	return out
}

// CrawlErrorsSnapshot returns a point-in-time copy of every distinct logged
// error.
func (m *Monitor) CrawlErrorsSnapshot() []model.CrawlError {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.CrawlError, 0, len(m.errors))
	for _, e := range m.errors {
		out = append(out, *e)
	}
	return out
}

// CoverageReport compares actual extracted counts against the expected
// counts this Monitor was constructed with, one CoverageMetric per
// domain/category/dataType combination seen on either side.
func (m *Monitor) CoverageReport() []model.CoverageMetric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{}, len(m.expected)+len(m.actual))
	for k := range m.expected {
		seen[k] = struct{}{}
	}
	for k := range m.actual {
		seen[k] = struct{}{}
	}

	out := make([]model.CoverageMetric, 0, len(seen))
	for key := range seen {
		domain, category, dataType := splitCoverageKey(key)
		metric := model.CoverageMetric{
			Domain:        domain,
			Category:      category,
			DataType:      dataType,
			ExpectedCount: m.expected[key],
			ActualCount:   m.actual[key],
			LastCrawled:   time.Now(),
		}
		if dataType == "" {
			for k, n := range m.actual {
				if d, c, dt := splitCoverageKey(k); dt != "" && d == domain && c == category {
					metric.ActualCount += n
				}
			}
		}
		if metric.ExpectedCount > 0 && metric.CoveragePercentage() < 50 {
			metric.Recommendations = append(metric.Recommendations, "expand scope")
		}
		out = append(out, metric)
	}
	return out
}

// RedirectMapSnapshot returns a point-in-time copy of every redirect
// observed this run.
func (m *Monitor) RedirectMapSnapshot() model.RedirectMap {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(model.RedirectMap, len(m.redirects))
	for k, v := range m.redirects {
		out[k] = v
	}
	return out
}

// Report builds the Coverage Monitor's end-of-run snapshot: every
// DomainStats, CrawlError, and CoverageMetric tracked so far, plus the
// fixed set of deterministic recommendations from spec §4.11 applied
// against them. This is the record the run persists to Storage once, at
// shutdown.
func (m *Monitor) Report() model.CoverageReport {
	domainStats := m.DomainStatsSnapshot()
	errors := m.CrawlErrorsSnapshot()
	metrics := m.CoverageReport()
	redirects := m.RedirectMapSnapshot()

	var recs []string
	for _, s := range domainStats {
		if s.TotalRequests > 0 && s.SuccessRate() < 0.60 {
			recs = append(recs, fmt.Sprintf("investigate politeness/auth for domain %s", s.Domain))
		}
		if s.AvgResponseTime > 10*time.Second {
			recs = append(recs, fmt.Sprintf("consider timeout tuning for domain %s", s.Domain))
		}
	}

	notFoundCount := 0
	for _, e := range errors {
		if e.Type == model.ErrorNotFound {
			notFoundCount++
		}
	}
	if notFoundCount > 20 {
		recs = append(recs, "refresh seed URLs")
	}
	if len(redirects) > 20 {
		recs = append(recs, "update seeds to new locations")
	}
	for _, c := range metrics {
		if c.ExpectedCount > 0 && c.CoveragePercentage() < 50 {
			recs = append(recs, fmt.Sprintf("expand scope for %s/%s", c.Domain, c.Category))
		}
	}

	return model.CoverageReport{
		GeneratedAt:     time.Now(),
		DomainStats:     domainStats,
		ErrorSummary:    errors,
		CoverageMetrics: metrics,
		Recommendations: recs,
		RedirectMap:     redirects,
	}
}

func splitCoverageKey(key string) (domain, category, dataType string) {
	parts := make([]string, 0, 3)
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	parts = append(parts, key[start:])
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}
