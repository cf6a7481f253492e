package limiter

import (
	"math/rand"
	"sync"
	"time"

	"github.com/boltoncivic/crawlctl/pkg/timeutil"
	"golang.org/x/time/rate"
)

// RateLimiter is a specialized component to manage rate limiting during crawling.
// Responsibilities:
// - Bookkeep each hostname's last fetch timestamp
// - Compute the final delay for each hostname given various factors
// - Make sure the crawling process respects the server's politeness policy
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	SetBackoffParam(param timeutil.BackoffParam)
	SetCrawlDelay(host string, delay time.Duration)
	Backoff(host string)
	ResetBackoff(host string)
	MarkLastFetchAsNow(host string)
	SetRNG(rng interface{})
	ResolveDelay(host string) time.Duration
}

type ConcurrentRateLimiter struct {
	mu           sync.RWMutex
	rngMu        sync.Mutex
	bucketMu     sync.Mutex
	baseDelay    time.Duration
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	hostTimings  map[string]hostTiming
	rng          *rand.Rand
	tokenBuckets map[string]*rate.Limiter
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		backoffParam: timeutil.NewBackoffParam(1*time.Second, 2.0, 30*time.Second),
		hostTimings:  make(map[string]hostTiming),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		tokenBuckets: make(map[string]*rate.Limiter),
	}
}

// tokenBucketFor returns the per-host token bucket, creating one sized to
// admit roughly one request per baseDelay if it does not exist yet. This is
// a hard floor underneath the jittered delay computed in ResolveDelay: even
// if jitter happens to land near zero, the bucket still refuses to hand out
// more than one token per baseDelay window.
func (r *ConcurrentRateLimiter) tokenBucketFor(host string, baseDelay time.Duration) *rate.Limiter {
	r.bucketMu.Lock()
	defer r.bucketMu.Unlock()

	limit := rate.Inf
	if baseDelay > 0 {
		limit = rate.Every(baseDelay)
	}

	b, exists := r.tokenBuckets[host]
	if !exists {
		b = rate.NewLimiter(limit, 1)
		r.tokenBuckets[host] = b
		return b
	}
	b.SetLimit(limit)
	return b
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// SetBackoffParam replaces the default backoff curve (1s initial, x2, cap 30s)
// used by Backoff.
func (r *ConcurrentRateLimiter) SetBackoffParam(param timeutil.BackoffParam) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backoffParam = param
}

// SetCrawlDelay sets delay for a given host, separate from the global base delay.
func (r *ConcurrentRateLimiter) SetCrawlDelay(host string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming, exists := r.hostTimings[host]
	if exists {
		currentHostTiming.crawlDelay = delay
		r.hostTimings[host] = currentHostTiming
	} else {
		r.hostTimings[host] = hostTiming{
			crawlDelay: delay,
		}
	}
}

// Backoff triggers exponential backoff for the given host.
// It increments the backoff counter and computes the delay.
func (r *ConcurrentRateLimiter) Backoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rngMu.Lock()
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	rng := r.rng
	r.rngMu.Unlock()

	currentHostTiming, exists := r.hostTimings[host]
	if exists {
		currentHostTiming.backoffCount++
	} else {
		currentHostTiming = hostTiming{backoffCount: 1}
	}
	currentHostTiming.backoffDelay = timeutil.ExponentialBackoffDelay(currentHostTiming.backoffCount, r.jitter, rng, r.backoffParam)
	r.hostTimings[host] = currentHostTiming
}

// ResetBackoff resets the backoff counter for the given host.
// Called after a successful request to clear backoff state.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming, exists := r.hostTimings[host]
	if exists {
		currentHostTiming.backoffCount = 0
		currentHostTiming.backoffDelay = time.Duration(0)
		r.hostTimings[host] = currentHostTiming
	}
}

// MarkLastFetchAsNow marks the given host's lastFetch as time.Now().
func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentHostTiming, exists := r.hostTimings[host]
	if exists {
		currentHostTiming.lastFetchAt = time.Now()
		r.hostTimings[host] = currentHostTiming
	} else {
		r.hostTimings[host] = hostTiming{
			lastFetchAt: time.Now(),
		}
	}
}

// computeJitter returns a pseudo-random duration between 0 and max (exclusive).
func (r *ConcurrentRateLimiter) computeJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return time.Duration(r.rng.Int63n(int64(max)))
}

// SetRNG allows injecting a custom random number generator for testing.
func (r *ConcurrentRateLimiter) SetRNG(rng interface{}) {
	randImpl, _ := rng.(*rand.Rand)
	r.rngMu.Lock()
	r.rng = randImpl
	r.rngMu.Unlock()
}

// ResolveDelay computes the final delay resolution for a given host:
// FinalDelay = max(BaseDelay, crawlDelay, BackoffDelay) + Jitter, floored by
// a per-host token bucket so concurrent callers can never both observe zero.
func (r *ConcurrentRateLimiter) ResolveDelay(host string) time.Duration {
	r.mu.RLock()
	currentHostTiming, exists := r.hostTimings[host]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists {
		return time.Duration(0)
	}

	delays := []time.Duration{base, currentHostTiming.crawlDelay, currentHostTiming.backoffDelay}
	finalDelay := timeutil.MaxDuration(delays)
	finalDelay += r.computeJitter(jitter)

	elapsed := time.Since(currentHostTiming.lastFetchAt)

	resolved := time.Duration(0)
	if elapsed < finalDelay {
		resolved = finalDelay - elapsed
	}

	reservation := r.tokenBucketFor(host, base).ReserveN(time.Now(), 1)
	if floor := reservation.DelayFrom(time.Now()); floor > resolved {
		resolved = floor
	}

	return resolved
}

func (r *ConcurrentRateLimiter) BaseDelay() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseDelay
}

func (r *ConcurrentRateLimiter) Jitter() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jitter
}

func (r *ConcurrentRateLimiter) RNG() *rand.Rand {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng
}

func (r *ConcurrentRateLimiter) HostTimings() map[string]hostTiming {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copyMap := make(map[string]hostTiming, len(r.hostTimings))
	for k, v := range r.hostTimings {
		copyMap[k] = v
	}
	return copyMap
}

// hostTiming is timing-related data used to track when to fetch a host next.
type hostTiming struct {
	lastFetchAt  time.Time
	backoffDelay time.Duration
	crawlDelay   time.Duration
	backoffCount int
}

func (h hostTiming) CrawlDelay() time.Duration {
	return h.crawlDelay
}

func (h hostTiming) BackOffDelay() time.Duration {
	return h.backoffDelay
}

func (h hostTiming) LastFetchAt() time.Time {
	return h.lastFetchAt
}

func (h hostTiming) BackoffCount() int {
	return h.backoffCount
}
