// Package apicache is an in-memory response cache with per-entry TTL and in-flight request deduplication.
//
// Values are kept until they expire; an expired value is evicted on read.
// Every sweepEvery insertions, all expired entries are swept.
// Errors are never cached.
package apicache

import (
	"context"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL = 5 * time.Minute
	sweepEvery = 10
)

type (
	entry struct {
		value     interface{}
		expiresAt time.Time
	}

	// Fetcher fetches the value of a key.
	Fetcher func(ctx context.Context) (interface{}, error)

	Option func(*Cache)

	// Cache is safe for concurrent use.
	Cache struct {
		mu      sync.Mutex
		entries map[string]entry
		inserts int

		ttl   time.Duration
		now   func() time.Time
		group singleflight.Group
	}
)

// WithClock sets the clock used to compute expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithDefaultTTL sets the ttl used by Set when none is given.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value of key if it has not expired. An expired entry is evicted.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Peek returns the value of key even if it has expired, without evicting it.
func (c *Cache) Peek(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return e.value, ok
}

// Set stores value under key until now + ttl. ttl <= 0 uses the default ttl.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	c.inserts++
	if c.inserts%sweepEvery == 0 {
		c.sweep(now)
	}
}

// sweep evicts every expired entry. c.mu must be held.
func (c *Cache) sweep(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// IsStale reports whether key is missing or expired.
func (c *Cache) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return !ok || !c.now().Before(e.expiresAt)
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePattern evicts every key matched by pattern, and only those.
func (c *Cache) InvalidatePattern(pattern *regexp.Regexp) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for k := range c.entries {
		if pattern.MatchString(k) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Deduplicate calls fetch once for all the concurrent callers of the same key,
// and hands them its result or error. The call is forgotten once it returns,
// so the next caller after a failure fetches again.
//
// A caller whose ctx is done stops waiting and gets ctx.Err(); the call keeps running for the others.
// fetch gets a context that is not cancelled with the caller's.
func (c *Cache) Deduplicate(ctx context.Context, key string, fetch Fetcher) (interface{}, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return fetch(detach(ctx))
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// detachedContext carries the values of its parent but none of its cancellation.
type detachedContext struct {
	context.Context
}

func (detachedContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detachedContext) Done() <-chan struct{}       { return nil }
func (detachedContext) Err() error                  { return nil }

func detach(ctx context.Context) context.Context {
	return detachedContext{ctx}
}
