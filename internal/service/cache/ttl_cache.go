// Package cache holds a small in-process TTL cache used to shield the signal
// read endpoints from hammering sqlite on every dashboard refresh.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a type-safe expiring cache. Expired entries are dropped lazily on
// read and in bulk whenever Set happens to pass over them.
type TTL[V any] struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]entry[V]
	now  func() time.Time
}

// NewTTL creates a cache with the given entry lifetime.
func NewTTL[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl:  ttl,
		data: make(map[string]entry[V]),
		now:  time.Now,
	}
}

// Get returns the cached value and whether it is present and fresh.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		if ok {
			c.mu.Lock()
			delete(c.data, key)
			c.mu.Unlock()
		}
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key for the cache TTL.
func (c *TTL[V]) Set(key string, value V) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.data {
		if now.After(e.expiresAt) {
			delete(c.data, k)
		}
	}
	c.data[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// Invalidate drops every entry. Called after a pipeline run writes fresh
// signals.
func (c *TTL[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]entry[V])
}
