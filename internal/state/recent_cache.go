package state

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultCacheTTL      = 6 * time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

type cacheOptions struct {
	ttl   time.Duration
	clock func() time.Time
}

// CacheOption configures a RecentCache.
type CacheOption func(*cacheOptions)

// WithTTL sets how long an unconsumed entry is kept. Zero or negative keeps
// entries until they are consumed.
func WithTTL(ttl time.Duration) CacheOption {
	return func(o *cacheOptions) {
		o.ttl = ttl
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) CacheOption {
	return func(o *cacheOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

// RecentCache holds snapshots of recently observed items until the matching
// removal or edit event consumes them. Each entry is read at most once.
type RecentCache[V any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	clock   func() time.Time
}

func NewRecentCache[V any](opts ...CacheOption) *RecentCache[V] {
	o := cacheOptions{ttl: DefaultCacheTTL, clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &RecentCache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     o.ttl,
		clock:   o.clock,
	}
}

// Put inserts or overwrites id unconditionally.
func (c *RecentCache[V]) Put(id string, v V) {
	c.mu.Lock()
	c.entries[id] = cacheEntry[V]{value: v, storedAt: c.clock()}
	c.mu.Unlock()
}

// TakeAndRemove returns the snapshot for id and forgets it. A second call for
// the same id reports absent. Expired entries that the sweeper has not yet
// reached are also reported absent.
func (c *RecentCache[V]) TakeAndRemove(id string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.entries, id)
	if c.expired(e, c.clock()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Swap stores v under id and returns what was there before.
func (c *RecentCache[V]) Swap(id string, v V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	old, ok := c.entries[id]
	c.entries[id] = cacheEntry[V]{value: v, storedAt: now}
	if !ok || c.expired(old, now) {
		var zero V
		return zero, false
	}
	return old.value, true
}

// Sweep drops entries older than the TTL and returns how many went.
func (c *RecentCache[V]) Sweep(now time.Time) int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// RemoveIf drops every entry whose value matches and returns how many went.
func (c *RecentCache[V]) RemoveIf(match func(V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, e := range c.entries {
		if match(e.value) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (c *RecentCache[V]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(c.clock())
		}
	}
}

func (c *RecentCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *RecentCache[V]) expired(e cacheEntry[V], now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.storedAt) > c.ttl
}
