package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-memory, TTL-bounded Cache. Every run gets its own
// instance; nothing is persisted across runs.
type MemoryCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]entry
}

// NewMemoryCache creates an empty cache where entries expire ttl after
// being Put.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:  ttl,
		data: make(map[string]entry),
	}
}

// Get returns the cached value for key, or false if it was never stored or
// has expired. An expired entry is evicted on read.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, exists := c.data[key]
	c.mu.RUnlock()

	if !exists {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Put stores value under key with a fresh TTL, overwriting any prior entry.
func (c *MemoryCache) Put(key string, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// Size returns the number of entries currently stored, expired or not.
// Useful for tests and diagnostics.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear removes every entry. Useful for tests.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]entry)
}
