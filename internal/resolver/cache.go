// Package resolver implements the resolution core: the corporate role linker,
// the office seat resolver with succession inference, and the process-wide
// result cache and backoff guard that sit in front of every store lookup.
//
// Every public operation in this package degrades to an empty result instead
// of returning an error. The presentation layer always receives a well-typed,
// possibly-empty value and decides how to render absence.
package resolver

import (
	"sync"
	"time"
)

// cacheEntry pairs a value with its expiry deadline and an insertion sequence
// number used for oldest-wins eviction.
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
	seq       uint64
}

// Cache is a bounded TTL memoization table shared by all request handlers in
// the process. It is not an LRU: entries expire on read and, when the table
// exceeds its item cap, the single oldest-inserted entry is evicted.
//
// The clock is injected so tests can assert TTL behavior deterministically.
// All methods are safe for concurrent use; "check TTL, then read" is done
// under the lock because it is not otherwise atomic.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[T]
	max     int
	now     func() time.Time
	seq     uint64
}

// NewCache creates a cache holding at most max entries, reading time from
// now. A nil now defaults to time.Now.
func NewCache[T any](max int, now func() time.Time) *Cache[T] {
	if now == nil {
		now = time.Now
	}
	if max < 1 {
		max = 1
	}
	return &Cache[T]{
		entries: make(map[string]cacheEntry[T]),
		max:     max,
		now:     now,
	}
}

// Get returns the cached value for key. An entry whose deadline has passed is
// treated as a miss and removed.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		var zero T
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key for ttl. When the table would exceed its cap,
// the oldest-inserted entry is evicted first.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.entries[key] = cacheEntry[T]{
		value:     value,
		expiresAt: c.now().Add(ttl),
		seq:       c.seq,
	}

	if len(c.entries) <= c.max {
		return
	}
	var oldestKey string
	oldestSeq := c.seq + 1
	for k, e := range c.entries {
		if e.seq < oldestSeq {
			oldestSeq = e.seq
			oldestKey = k
		}
	}
	delete(c.entries, oldestKey)
}

// Len returns the current number of entries, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
