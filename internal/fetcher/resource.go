package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/boltoncivic/crawlctl/internal/coverage"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/pkg/failure"
	"github.com/boltoncivic/crawlctl/pkg/limiter"
	"github.com/boltoncivic/crawlctl/pkg/retry"
)

// errRedirectLimit is returned from http.Client's CheckRedirect hook once a
// chain grows past the configured ceiling; http.Client wraps it into the
// *url.Error returned by Do, so performFetch unwraps it with errors.As.
var errRedirectLimit = errors.New("redirect limit exceeded")

// ResourceFetcher is the crawler's single HTTP entry point. It applies
// browser-like headers, bounds redirect chains, enforces a per-file size
// ceiling, paces itself through a per-host rate limiter, and reports the
// outcome of each Fetch call (after any retries) to a coverage.Recorder.
//
// The fetcher never parses content; it only returns bytes and metadata.
type ResourceFetcher struct {
	userAgent    string
	maxFileSize  int64
	maxRedirects int
	timeout      time.Duration
	rateLimiter  limiter.RateLimiter
	recorder     coverage.Recorder

	redirectsMu sync.Mutex
	redirects   model.RedirectMap
}

func NewResourceFetcher(
	userAgent string,
	maxFileSize int64,
	maxRedirects int,
	timeout time.Duration,
	rateLimiter limiter.RateLimiter,
	recorder coverage.Recorder,
) *ResourceFetcher {
	return &ResourceFetcher{
		userAgent:    userAgent,
		maxFileSize:  maxFileSize,
		maxRedirects: maxRedirects,
		timeout:      timeout,
		rateLimiter:  rateLimiter,
		recorder:     recorder,
		redirects:    make(model.RedirectMap),
	}
}

// Redirects returns every old-URL→new-URL hop observed across every fetch
// this ResourceFetcher has made. It is append-only for the lifetime of one
// crawl run.
func (f *ResourceFetcher) Redirects() model.RedirectMap {
	f.redirectsMu.Lock()
	defer f.redirectsMu.Unlock()

	out := make(model.RedirectMap, len(f.redirects))
	for k, v := range f.redirects {
		out[k] = v
	}
	return out
}

func (f *ResourceFetcher) recordRedirect(from, to string) {
	f.redirectsMu.Lock()
	defer f.redirectsMu.Unlock()
	f.redirects[from] = to
}

func (f *ResourceFetcher) httpClient() *http.Client {
	return &http.Client{
		Timeout: f.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.maxRedirects {
				return errRedirectLimit
			}
			if len(via) > 0 {
				f.recordRedirect(via[len(via)-1].URL.String(), req.URL.String())
			}
			return nil
		},
	}
}

func (f *ResourceFetcher) Fetch(ctx context.Context, param FetchParam, retryParam retry.RetryParam) (model.FetchResult, failure.ClassifiedError) {
	host := param.TargetURL.Hostname()
	startTime := time.Now()

	f.wait(ctx, host)

	result, err := f.fetchWithRetry(ctx, param, retryParam)

	duration := time.Since(startTime)
	attempts := retryParam.MaxAttempts

	if err == nil {
		f.rateLimiter.ResetBackoff(host)
		f.rateLimiter.MarkLastFetchAsNow(host)
		f.recorder.RecordFetch(param.TargetURL.String(), host, result.Status, duration, result.ContentType, result.Attempt-1, param.Depth, true)
		return result, nil
	}

	f.rateLimiter.Backoff(host)
	f.rateLimiter.MarkLastFetchAsNow(host)

	var statusCode int
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		statusCode = statusFromCause(fetchErr.Cause)
	}
	f.recorder.RecordFetch(param.TargetURL.String(), host, statusCode, duration, "", attempts, param.Depth, false)
	f.recordError(param.TargetURL, param.Category, err)

	return model.FetchResult{}, err
}

// wait blocks until the rate limiter's resolved delay for host elapses or
// ctx is cancelled, whichever happens first.
func (f *ResourceFetcher) wait(ctx context.Context, host string) {
	delay := f.rateLimiter.ResolveDelay(host)
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (f *ResourceFetcher) recordError(target url.URL, category string, err failure.ClassifiedError) {
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return
	}
	f.recorder.RecordError(
		coverage.ErrorRecord{
			PackageName: "fetcher",
			Action:      "ResourceFetcher.Fetch",
			Cause:       mapFetchErrorToCause(fetchErr),
			ErrorString: fetchErr.Error(),
			ObservedAt:  time.Now(),
			Attrs: []coverage.Attribute{
				coverage.NewAttr(coverage.AttrURL, target.String()),
				coverage.NewAttr(coverage.AttrHost, target.Hostname()),
			},
		},
		target.Hostname(),
		category,
		crawlErrorKindFor(fetchErr.Cause),
		target.String(),
	)
}

func crawlErrorKindFor(cause FetchErrorCause) model.CrawlErrorType {
	switch cause {
	case ErrCauseTimeout:
		return model.ErrorTimeout
	case ErrCauseRequestForbidden, ErrCauseRequestTooMany:
		return model.ErrorAccessDenied
	case ErrCauseRequest5xx:
		return model.ErrorServer
	case ErrCauseRequestClientError:
		return model.ErrorNotFound
	default:
		return model.ErrorParsing
	}
}

func statusFromCause(cause FetchErrorCause) int {
	switch cause {
	case ErrCauseRequestTooMany:
		return http.StatusTooManyRequests
	case ErrCauseRequestForbidden:
		return http.StatusForbidden
	case ErrCauseRequest5xx:
		return http.StatusInternalServerError
	case ErrCauseRequestClientError:
		return http.StatusBadRequest
	default:
		return 0
	}
}

func (f *ResourceFetcher) fetchWithRetry(ctx context.Context, param FetchParam, retryParam retry.RetryParam) (model.FetchResult, failure.ClassifiedError) {
	attempt := 0
	fetchTask := func() (model.FetchResult, failure.ClassifiedError) {
		attempt++
		return f.performFetch(ctx, param, attempt)
	}

	res := retry.Retry(retryParam, fetchTask)
	if retryErr := res.Err(); retryErr != nil {
		var fetchErr *FetchError
		if errors.As(retryErr, &fetchErr) {
			return model.FetchResult{}, fetchErr
		}
		return model.FetchResult{}, retryErr
	}
	return res.Value(), nil
}

func (f *ResourceFetcher) performFetch(ctx context.Context, param FetchParam, attempt int) (model.FetchResult, failure.ClassifiedError) {
	attemptStart := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, param.TargetURL.String(), nil)
	if err != nil {
		return model.FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	for key, value := range requestHeaders(param.UserAgent) {
		req.Header.Set(key, value)
	}

	resp, err := f.httpClient().Do(req)
	if err != nil {
		if errors.Is(err, errRedirectLimit) || isRedirectLimitError(err) {
			return model.FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("redirect chain for %s exceeded %d hops", param.TargetURL.String(), f.maxRedirects),
				Retryable: false,
				Cause:     ErrCauseRedirectLimitExceeded,
			}
		}
		return model.FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	if resp.ContentLength > 0 && resp.ContentLength > f.maxFileSize {
		return model.FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("content-length %d exceeds max %d", resp.ContentLength, f.maxFileSize),
			Retryable: false,
			Cause:     ErrCauseContentTooLarge,
		}
	}

	switch {
	case resp.StatusCode >= 500:
		return model.FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("server error: %d", resp.StatusCode),
			Retryable: true,
			Cause:     ErrCauseRequest5xx,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return model.FetchResult{}, &FetchError{
			Message:   "rate limited (429)",
			Retryable: true,
			Cause:     ErrCauseRequestTooMany,
		}
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return model.FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("access forbidden (%d)", resp.StatusCode),
			Retryable: false,
			Cause:     ErrCauseRequestForbidden,
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return model.FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("client error: %d", resp.StatusCode),
			Retryable: false,
			Cause:     ErrCauseRequestClientError,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxFileSize+1))
	if err != nil {
		return model.FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}
	if int64(len(body)) > f.maxFileSize {
		return model.FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("body exceeds max file size %d", f.maxFileSize),
			Retryable: false,
			Cause:     ErrCauseContentTooLarge,
		}
	}

	finalURL := param.TargetURL.String()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return model.FetchResult{
		URL:          param.TargetURL.String(),
		FinalURL:     finalURL,
		Status:       resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		Body:         body,
		ResponseTime: time.Since(attemptStart),
		FetchedAt:    time.Now(),
		Attempt:      attempt,
	}, nil
}

// isRedirectLimitError unwraps the *url.Error http.Client wraps our
// CheckRedirect error in.
func isRedirectLimitError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return errors.Is(urlErr.Err, errRedirectLimit)
	}
	return false
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,text/csv,application/pdf,application/vnd.ms-excel,*/*;q=0.8",
		"Accept-Language": "en-GB,en;q=0.5",
		"Accept-Encoding": "gzip, deflate, br",
		"Connection":      "keep-alive",
	}
}

var _ Fetcher = (*ResourceFetcher)(nil)
