// Package cache provides a process-lifetime memoization cache with
// per-key coalescing of concurrent fetches.
package cache

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes successful fetch results by key. Concurrent callers
// asking for the same key before the first fetch completes share the
// in-flight call instead of issuing duplicates. Failed fetches are
// never stored, so a later call retries.
//
// Entries are kept for the process lifetime with no bound or TTL;
// callers use it for metadata that is immutable once published.
type Cache[V any] struct {
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]V
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]V)}
}

// GetOrFetch returns the cached value for key, or runs fetch exactly
// once per distinct key and stores its result on success.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return value, nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A racing caller may have stored the entry between the read
		// above and this flight starting.
		c.mu.RLock()
		value, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return value, nil
		}

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = value
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Len reports the number of stored entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Key builds a canonical cache key from its parts, so equivalent
// lookups always hash to the same entry regardless of how callers
// assembled their parameters.
func Key(parts ...string) string {
	return strings.Join(parts, "\x1f")
}
