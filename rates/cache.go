package rates

import (
	"context"
	"sync"
	"time"
)

// Cache holds one fetched value with its fetch time and TTL. It replaces
// process-global caches: callers construct an instance and inject it where
// needed.
type Cache[T any] struct {
	mu        sync.Mutex
	data      T
	fetchedAt time.Time
	ttl       time.Duration
	fetch     func(ctx context.Context) (T, error)
}

func NewCache[T any](ttl time.Duration, fetch func(ctx context.Context) (T, error)) *Cache[T] {
	return &Cache[T]{ttl: ttl, fetch: fetch}
}

// GetOrRefresh returns the cached value while it is fresh, refreshing it
// otherwise. A failed refresh keeps serving stale data when any exists,
// since a stale rate beats no rate.
func (c *Cache[T]) GetOrRefresh(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl {
		return c.data, nil
	}

	data, err := c.fetch(ctx)
	if err != nil {
		if !c.fetchedAt.IsZero() {
			return c.data, nil
		}
		var zero T
		return zero, err
	}

	c.data = data
	c.fetchedAt = time.Now()
	return c.data, nil
}

// Invalidate clears the cached value; the next call refetches.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}
