package notifier

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// guildRateLimiter tracks send budgets per guild so a raid in one guild
// cannot starve the others.
type guildRateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	lastAccess map[string]time.Time
	rate       rate.Limit
	burst      int
}

func newGuildRateLimiter(perMinute int) *guildRateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return newGuildRateLimiterWith(rate.Limit(float64(perMinute)/60.0), max(1, perMinute/10))
}

func newGuildRateLimiterWith(r rate.Limit, burst int) *guildRateLimiter {
	return &guildRateLimiter{
		limiters:   make(map[string]*rate.Limiter),
		lastAccess: make(map[string]time.Time),
		rate:       r,
		burst:      burst,
	}
}

func (g *guildRateLimiter) limiterFor(guildID string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	limiter, exists := g.limiters[guildID]
	if !exists {
		limiter = rate.NewLimiter(g.rate, g.burst)
		g.limiters[guildID] = limiter
	}
	g.lastAccess[guildID] = time.Now()
	return limiter
}

// Wait blocks until guildID may send. It fails at once when the budget
// cannot free up before ctx's deadline. A nil limiter never waits.
func (g *guildRateLimiter) Wait(ctx context.Context, guildID string) error {
	if g == nil {
		return nil
	}
	return g.limiterFor(guildID).Wait(ctx)
}

// Evict removes limiters that haven't been used within maxAge.
func (g *guildRateLimiter) Evict(maxAge time.Duration) int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	n := 0
	for id, last := range g.lastAccess {
		if last.Before(cutoff) {
			delete(g.limiters, id)
			delete(g.lastAccess, id)
			n++
		}
	}
	return n
}

func (g *guildRateLimiter) Len() int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.limiters)
}
