package forensics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-logrelay/internal/logging"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DefaultFreshnessWindow bounds how long after an event an audit entry is
// still trusted as its cause.
const DefaultFreshnessWindow = 5 * time.Second

const (
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = time.Minute
)

// Attribution names who performed an action. It is never stored.
type Attribution struct {
	ActorID string
	Reason  string
	EntryID string
	At      time.Time
}

// Result labels reported to the observer.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

type ResolverOption func(*Resolver)

func WithWindow(window time.Duration) ResolverOption {
	return func(r *Resolver) {
		if window > 0 {
			r.matcher = NewAuditMatcher(window)
		}
	}
}

// WithBreaker trips a guild's breaker after failures consecutive fetch
// errors and keeps it open for timeout.
func WithBreaker(failures uint32, timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		if failures > 0 {
			r.breakerFailures = failures
		}
		if timeout > 0 {
			r.breakerTimeout = timeout
		}
	}
}

// WithObserver receives one result label per Resolve call.
func WithObserver(fn func(action AuditAction, result string)) ResolverOption {
	return func(r *Resolver) {
		r.observe = fn
	}
}

// Resolver answers "who did this" from the newest audit entry. It prefers
// no answer to a wrong one.
type Resolver struct {
	source  AuditSource
	matcher *AuditMatcher
	observe func(action AuditAction, result string)

	breakerFailures uint32
	breakerTimeout  time.Duration

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewResolver(source AuditSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source:          source,
		matcher:         NewAuditMatcher(DefaultFreshnessWindow),
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
		breakers:        make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Window() time.Duration {
	return r.matcher.Window()
}

// Resolve fetches the single newest entry of action and accepts it if it
// targets subjectID and falls inside [since, since+window]. Any fetch
// failure, including an open breaker, resolves to none.
func (r *Resolver) Resolve(ctx context.Context, guildID string, action AuditAction, subjectID string, since time.Time) (Attribution, bool) {
	if r == nil || r.source == nil || guildID == "" || subjectID == "" {
		return Attribution{}, false
	}

	res, err := r.breaker(guildID).Execute(func() (interface{}, error) {
		return r.source.LatestAuditEntries(ctx, guildID, action, 1)
	})
	if err != nil {
		level := zap.DebugLevel
		if errors.Is(err, gobreaker.ErrOpenState) {
			level = zap.WarnLevel
		}
		logging.L().Check(level, "audit fetch failed").Write(
			zap.String("guild_id", guildID),
			zap.Stringer("action", action),
			zap.Error(err),
		)
		r.report(action, ResultError)
		return Attribution{}, false
	}

	entries, _ := res.([]AuditEntry)
	if len(entries) == 0 || !r.matcher.Matches(entries[0], subjectID, since) {
		r.report(action, ResultMiss)
		return Attribution{}, false
	}

	e := entries[0]
	r.report(action, ResultHit)
	return Attribution{ActorID: e.ActorID, Reason: e.Reason, EntryID: e.ID, At: e.At}, true
}

func (r *Resolver) breaker(guildID string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[guildID]; ok {
		return cb
	}
	failures := r.breakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fmt.Sprintf("audit-%s", guildID),
		MaxRequests: 1,
		Timeout:     r.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.L().Info("audit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	r.breakers[guildID] = cb
	return cb
}

func (r *Resolver) report(action AuditAction, result string) {
	if r.observe != nil {
		r.observe(action, result)
	}
}
