// Package cache holds the in-process FIFO+TTL cache used for result lists.
package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// FIFO is a capacity-bounded cache with a fixed TTL that evicts the
// oldest-inserted entry first. Reads do not refresh position or expiry.
// Safe for concurrent use.
//
// Recency order of the underlying LRU only moves on Add: reads go through
// Peek, so the least recently used entry is always the oldest insertion.
type FIFO[K comparable, V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	items *simplelru.LRU[K, fifoEntry[V]]
	now   func() time.Time
}

type fifoEntry[V any] struct {
	value    V
	storedAt time.Time
}

// NewFIFO creates a FIFO cache. Defaults: capacity 100, ttl 30 minutes.
func NewFIFO[K comparable, V any](capacity int, ttl time.Duration) *FIFO[K, V] {
	if capacity <= 0 {
		capacity = 100
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	items, _ := simplelru.NewLRU[K, fifoEntry[V]](capacity, nil) //nolint:errcheck // capacity > 0
	return &FIFO[K, V]{ttl: ttl, items: items, now: time.Now}
}

// WithClock replaces the time source (tests).
func (c *FIFO[K, V]) WithClock(now func() time.Time) *FIFO[K, V] {
	c.now = now
	return c
}

// Get returns a live value for key. Expired entries are dropped on read.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items.Peek(key)
	if !ok {
		return zero, false
	}
	if c.expired(e, c.now()) {
		c.items.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Put stores value under key. Re-storing a key replaces it and counts as a new insertion.
// Evicts the oldest insertion when over capacity.
func (c *FIFO[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value, c.now())
}

// PutAt stores value as if it had been inserted at storedAt, so it expires
// ttl after that instant rather than after now. Already expired values are dropped.
func (c *FIFO[K, V]) PutAt(key K, value V, storedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now().Sub(storedAt) >= c.ttl {
		c.items.Remove(key)
		return
	}
	c.put(key, value, storedAt)
}

// Len returns the number of stored entries, including not yet collected expired ones.
func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// Clear removes all entries.
func (c *FIFO[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
}

// CleanupExpired removes all expired entries and returns how many were removed.
func (c *FIFO[K, V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.items.Keys() {
		if e, ok := c.items.Peek(key); ok && c.expired(e, now) {
			c.items.Remove(key)
			removed++
		}
	}
	return removed
}

// put must be called with lock held. Remove first so a re-stored key moves to the newest position.
func (c *FIFO[K, V]) put(key K, value V, storedAt time.Time) {
	c.items.Remove(key)
	c.items.Add(key, fifoEntry[V]{value: value, storedAt: storedAt})
}

func (c *FIFO[K, V]) expired(e fifoEntry[V], now time.Time) bool {
	return now.Sub(e.storedAt) >= c.ttl
}
