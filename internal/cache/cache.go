// Package cache provides the process-wide response caches.
//
// Callers depend on the Cache interface so tests and deployments can swap
// the in-memory store for a persistent or no-op one.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL applies when a cache is created without an explicit TTL.
const DefaultTTL = time.Hour

// Cache stores values by key until they expire.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
}

type entry[V any] struct {
	expiry time.Time
	value  V
}

// Memory is a thread-safe TTL cache held in process memory.
type Memory[V any] struct {
	entries map[string]entry[V]
	now     func() time.Time
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// NewMemory creates a cache and starts its cleanup goroutine. Call Close to stop it.
func NewMemory[V any](ttl time.Duration) *Memory[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Memory[V]{
		entries: make(map[string]entry[V]),
		now:     time.Now,
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go c.cleanup(cleanupInterval(ttl))

	return c
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := 5 * time.Minute
	if ttl < interval {
		interval = ttl
	}
	return interval
}

// Get returns the value if present and not expired.
func (c *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiry) {
		return zero, false
	}
	return e.value, true
}

// Set stores a value for the cache TTL.
func (c *Memory[V]) Set(_ context.Context, key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiry: c.now().Add(c.ttl)}
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Memory[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Memory[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Sweep deletes expired entries and returns how many were removed.
func (c *Memory[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Memory[V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *Memory[V]) Close() {
	c.once.Do(func() { close(c.stopCh) })
}

// Noop never stores anything.
type Noop[V any] struct{}

// Get always misses.
func (Noop[V]) Get(context.Context, string) (V, bool) {
	var zero V
	return zero, false
}

// Set discards the value.
func (Noop[V]) Set(context.Context, string, V) {}
