// Package memorystore holds the process-wide, read-mostly market metadata
// caches: the exchange symbol directory and the ATH-per-symbol scan. Both
// are get-or-refresh caches with explicit TTLs.
package memorystore

import (
	"context"
	"sync"
	"time"
)

// TTLCache caches a single value for a fixed TTL and refreshes it through
// the supplied fetch function on expiry. Readers never block behind a
// refresh already holding a fresh slot; concurrent refreshes are collapsed
// into one fetch.
type TTLCache[T any] struct {
	ttl   time.Duration
	fetch func(ctx context.Context) (T, error)

	mu        sync.RWMutex // guards the slot below
	value     T
	expiresAt time.Time
	valid     bool

	refreshMu sync.Mutex // serializes refreshes
}

func NewTTLCache[T any](ttl time.Duration, fetch func(ctx context.Context) (T, error)) *TTLCache[T] {
	return &TTLCache[T]{ttl: ttl, fetch: fetch}
}

// Get returns the cached value, refreshing it first when expired.
func (c *TTLCache[T]) Get(ctx context.Context) (T, error) {
	c.mu.RLock()
	if c.valid && time.Now().Before(c.expiresAt) {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another waiter may have refreshed while we queued.
	c.mu.RLock()
	if c.valid && time.Now().Before(c.expiresAt) {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.value = v
	c.expiresAt = time.Now().Add(c.ttl)
	c.valid = true
	c.mu.Unlock()

	return v, nil
}

// Invalidate drops the cached value so the next Get refetches.
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
