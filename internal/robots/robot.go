// Package robots decides whether the crawler may fetch a URL, consulting
// temoto/robotstxt against a TTL-cached copy of the host's robots.txt.
//
// Robots checks happen before a candidate ever reaches the Frontier: a
// disallowed URL is simply never submitted.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/boltoncivic/crawlctl/internal/robots/cache"
	"github.com/temoto/robotstxt"
)

// maxRobotsBodySize bounds how much of a robots.txt response is read,
// mirroring the size ceiling the Fetcher applies to ordinary resources.
const maxRobotsBodySize = 500 * 1024

// Checker fetches, caches, and evaluates per-host robots.txt rules.
type Checker struct {
	httpClient *http.Client
	userAgent  string
	cache      cache.Cache
}

// NewChecker builds a Checker. cache is required; callers typically pass a
// cache.NewMemoryCache(24*time.Hour) per the spec's robots.txt TTL.
func NewChecker(userAgent string, robotsCache cache.Cache) *Checker {
	return &Checker{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
		cache:      robotsCache,
	}
}

// Allowed reports whether target may be fetched under the target host's
// robots.txt, and the crawl-delay the matching user-agent group declares,
// if any.
func (c *Checker) Allowed(ctx context.Context, target *url.URL) (bool, *time.Duration, *RobotsError) {
	data, err := c.robotsDataFor(ctx, target)
	if err != nil {
		return false, nil, err
	}

	group := data.FindGroup(c.userAgent)
	allowed := group.Test(target.Path)

	var delay *time.Duration
	if group.CrawlDelay > 0 {
		d := group.CrawlDelay
		delay = &d
	}
	return allowed, delay, nil
}

func cacheKey(target *url.URL) string {
	return fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)
}

func (c *Checker) robotsDataFor(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, *RobotsError) {
	key := cacheKey(target)

	if cached, ok := c.cache.Get(key); ok {
		if data, err := robotstxt.FromString(cached); err == nil {
			return data, nil
		}
		// A corrupt cache entry falls through to a live re-fetch.
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, &RobotsError{Message: err.Error(), Retryable: false, Cause: ErrCausePreFetchFailure}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-GB")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RobotsError{Message: err.Error(), Retryable: true, Cause: ErrCauseHttpFetchFailure}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodySize+1))
		if err != nil {
			return nil, &RobotsError{Message: err.Error(), Retryable: true, Cause: ErrCauseParseError}
		}
		if len(body) > maxRobotsBodySize {
			body = body[:maxRobotsBodySize]
		}
		data, err := robotstxt.FromBytes(body)
		if err != nil {
			return nil, &RobotsError{Message: err.Error(), Retryable: false, Cause: ErrCauseParseError}
		}
		c.cache.Put(key, string(body))
		return data, nil

	case resp.StatusCode == 429:
		return nil, &RobotsError{
			Message:   fmt.Sprintf("rate limited fetching %s", robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpTooManyRequests,
		}

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// No robots.txt means no restrictions; cache the "allow everything"
		// result so repeated candidates for this host don't keep re-fetching.
		data, _ := robotstxt.FromBytes(nil)
		c.cache.Put(key, "")
		return data, nil

	case resp.StatusCode >= 500:
		return nil, &RobotsError{
			Message:   fmt.Sprintf("server error %d fetching %s", resp.StatusCode, robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpServerError,
		}

	default:
		return nil, &RobotsError{
			Message:   fmt.Sprintf("unexpected status %d fetching %s", resp.StatusCode, robotsURL),
			Retryable: true,
			Cause:     ErrCauseHttpUnexpectedStatus,
		}
	}
}
