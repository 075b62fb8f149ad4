package resource

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher loads the value for params.
type Fetcher[P, T any] func(ctx context.Context, params P) (T, error)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Cache is a keyed fetch cache. It is safe for concurrent use.
type Cache[P, T any] struct {
	fetch Fetcher[P, T]
	opts  options
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry[T]
}

// NewCache creates a cache around fetch.
func NewCache[P, T any](fetch Fetcher[P, T], opts ...Option) *Cache[P, T] {
	o := options{name: "default", now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default().With("component", "resource", "cache", o.name)
	}
	return &Cache[P, T]{
		fetch:   fetch,
		opts:    o,
		entries: make(map[string]entry[T]),
	}
}

// Peek returns the cached value for key if it is still fresh.
func (c *Cache[P, T]) Peek(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.fresh(e) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Get returns the fresh cached value for key or fetches it. Concurrent
// calls for the same key share one fetch.
func (c *Cache[P, T]) Get(ctx context.Context, key string, params P) (T, error) {
	if v, ok := c.Peek(key); ok {
		c.opts.metrics.hit(c.opts.name)
		return v, nil
	}

	// The fetch outlives a cancelled caller so other waiters and the cache
	// still get its result.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		start := c.opts.now()
		value, err := c.fetchWithRetry(flightCtx, params)
		c.opts.metrics.observeFetch(c.opts.name, c.opts.now().Sub(start).Seconds(), err)
		if err != nil {
			return value, err
		}
		c.store(key, value)
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.opts.metrics.share(c.opts.name)
		}
		value, _ := res.Val.(T)
		return value, res.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Invalidate drops the cached value for key.
func (c *Cache[P, T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every cached value.
func (c *Cache[P, T]) Purge() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Len returns the number of cached values, fresh or not.
func (c *Cache[P, T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[P, T]) fetchWithRetry(ctx context.Context, params P) (T, error) {
	var (
		value T
		err   error
	)
	for attempt := 0; attempt <= c.opts.retryCount; attempt++ {
		if attempt > 0 {
			c.opts.logger.Debug("retrying fetch", "attempt", attempt, "error", err)
			if !sleep(ctx, c.opts.retryDelay) {
				return value, ctx.Err()
			}
		}
		value, err = c.fetch(ctx, params)
		if err == nil {
			return value, nil
		}
	}
	c.opts.logger.Warn("fetch failed", "attempts", c.opts.retryCount+1, "error", err)
	return value, err
}

// store saves value and drops entries that are no longer fresh.
func (c *Cache[P, T]) store(key string, value T) {
	if c.opts.staleTime <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !c.fresh(e) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = entry[T]{value: value, fetchedAt: c.opts.now()}
}

// fresh reports whether e is within the stale time. Caller holds mu.
func (c *Cache[P, T]) fresh(e entry[T]) bool {
	return c.opts.staleTime > 0 && c.opts.now().Sub(e.fetchedAt) < c.opts.staleTime
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
