package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/boltoncivic/crawlctl/internal/coverage"
	"github.com/boltoncivic/crawlctl/internal/fetcher"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/pkg/failure"
	"github.com/boltoncivic/crawlctl/pkg/limiter"
	"github.com/boltoncivic/crawlctl/pkg/retry"
	"github.com/boltoncivic/crawlctl/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retryParam() retry.RetryParam {
	return retry.NewRetryParam(time.Millisecond, time.Millisecond, 1, 3, timeutil.NewBackoffParam(time.Millisecond, 2.0, 10*time.Millisecond))
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func newFetcher(recorder coverage.Recorder) *fetcher.ResourceFetcher {
	return fetcher.NewResourceFetcher("crawlctl/1.0", 10*1024*1024, 5, 5*time.Second, limiter.NewConcurrentRateLimiter(), recorder)
}

type noopRecorder struct{}

func (noopRecorder) RecordFetch(string, string, int, time.Duration, string, int, int, bool) {}
func (noopRecorder) RecordError(coverage.ErrorRecord, string, string, model.CrawlErrorType, string) {
}
func (noopRecorder) RecordArtifact(string, string, string) {}
func (noopRecorder) RecordRedirect(string, string)         {}
func (noopRecorder) MarkResolved(string)                   {}

func TestResourceFetcher_FetchesCSVContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	f := newFetcher(noopRecorder{})
	param := fetcher.NewFetchParam(mustParseURL(t, srv.URL+"/data.csv"), "crawlctl/1.0", "finance", 1)

	result, err := f.Fetch(context.Background(), param, retryParam())
	require.Nil(t, err)
	assert.Equal(t, 200, result.Status)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "a,b\n1,2\n", string(result.Body))
}

func TestResourceFetcher_RetriesOn5xxThenSucceeds(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := newFetcher(noopRecorder{})
	param := fetcher.NewFetchParam(mustParseURL(t, srv.URL+"/page"), "crawlctl/1.0", "notices", 0)

	result, err := f.Fetch(context.Background(), param, retryParam())
	require.Nil(t, err)
	assert.Equal(t, 2, hits)
	assert.Equal(t, 200, result.Status)
}

func TestResourceFetcher_ForbiddenIsNotRetried(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := newFetcher(noopRecorder{})
	param := fetcher.NewFetchParam(mustParseURL(t, srv.URL+"/secret"), "crawlctl/1.0", "notices", 0)

	_, err := f.Fetch(context.Background(), param, retryParam())
	require.NotNil(t, err)
	assert.Equal(t, 1, hits, "403 must not be retried")
	assert.Equal(t, failure.SeverityFatal, err.Severity())
}

func TestResourceFetcher_ContentLengthOverLimitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "999999999")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := fetcher.NewResourceFetcher("crawlctl/1.0", 1024, 5, 5*time.Second, limiter.NewConcurrentRateLimiter(), noopRecorder{})
	param := fetcher.NewFetchParam(mustParseURL(t, srv.URL+"/big.pdf"), "crawlctl/1.0", "budget", 0)

	_, err := f.Fetch(context.Background(), param, retryParam())
	require.NotNil(t, err)
}

func TestResourceFetcher_RedirectLimitExceeded(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	f := fetcher.NewResourceFetcher("crawlctl/1.0", 1024*1024, 2, 5*time.Second, limiter.NewConcurrentRateLimiter(), noopRecorder{})
	param := fetcher.NewFetchParam(mustParseURL(t, srv.URL+"/a"), "crawlctl/1.0", "budget", 0)

	_, err := f.Fetch(context.Background(), param, retryParam())
	require.NotNil(t, err)
}

func TestResourceFetcher_CapturesRedirectChain(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, srv.URL+"/new", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := fetcher.NewResourceFetcher("crawlctl/1.0", 1024*1024, 5, 5*time.Second, limiter.NewConcurrentRateLimiter(), noopRecorder{})
	param := fetcher.NewFetchParam(mustParseURL(t, srv.URL+"/old"), "crawlctl/1.0", "notices", 0)

	result, err := f.Fetch(context.Background(), param, retryParam())
	require.Nil(t, err)
	assert.Equal(t, srv.URL+"/new", result.FinalURL)

	redirects := f.Redirects()
	assert.Equal(t, srv.URL+"/new", redirects[srv.URL+"/old"])
}

func TestResourceFetcher_RecordsCoverageOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	m := coverage.NewMonitor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	f := newFetcher(m)
	param := fetcher.NewFetchParam(mustParseURL(t, srv.URL+"/report.pdf"), "crawlctl/1.0", "finance", 2)

	_, err := f.Fetch(context.Background(), param, retryParam())
	require.Nil(t, err)

	deadline := time.Now().Add(time.Second)
	var stats []model.DomainStats
	for time.Now().Before(deadline) {
		stats = m.DomainStatsSnapshot()
		if len(stats) == 1 && stats[0].TotalRequests == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].SuccessfulRequests)
}
