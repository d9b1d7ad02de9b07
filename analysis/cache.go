// Copyright © 2024 The wlscope authors

package analysis

import "sync"

// Cache memoizes values per key for one version of a file's tree.
//
// Invalidate swaps in an empty snapshot, so readers see either the old
// entries or none and never a partially cleared map.  A value computed
// while an invalidation happened is returned to its caller but not stored.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	gen     uint64
	dirty   bool
	entries map[K]V
	metric  string
}

// NewCache returns an empty cache.  name labels its hit and miss metrics.
func NewCache[K comparable, V any](name string) *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V), metric: name}
}

// GetOrCompute returns the cached value for key or stores and returns the
// result of compute.  compute runs without the lock held.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() V) V {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		cacheLookups.WithLabelValues(c.metric, "hit").Inc()
		return v
	}
	gen := c.gen
	c.mu.Unlock()
	cacheLookups.WithLabelValues(c.metric, "miss").Inc()

	v := compute()

	c.mu.Lock()
	if c.gen == gen {
		c.entries[key] = v
		c.dirty = false
	}
	c.mu.Unlock()
	return v
}

// Invalidate discards every entry.
func (c *Cache[K, V]) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.dirty = true
	c.entries = make(map[K]V)
	c.mu.Unlock()
	cacheInvalidations.WithLabelValues(c.metric).Inc()
}

// Dirty reports whether the cache was invalidated and nothing has been
// recomputed since.
func (c *Cache[K, V]) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Generation counts the invalidations of the cache.
func (c *Cache[K, V]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
