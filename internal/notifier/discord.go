package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-logrelay/internal/logging"

	"github.com/avast/retry-go/v5"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var (
	ErrNoSession   = errors.New("notifier has no discord session")
	ErrNoChannel   = errors.New("no destination channel")
	ErrRateLimited = errors.New("guild notification budget not available in time")
)

// Sender posts a notification to a channel. Errors are for the caller to
// log; they never mean the event loop should stop.
type Sender interface {
	Send(ctx context.Context, channelID string, n Notification) error
}

// ChannelPoster is the slice of *discordgo.Session the sender needs.
type ChannelPoster interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Option func(*DiscordSender)

// WithRatePerMinute paces sends per guild; sends over the budget wait for
// it. Zero disables pacing.
func WithRatePerMinute(n int) Option {
	return func(s *DiscordSender) {
		s.limiter = newGuildRateLimiter(n)
	}
}

func WithRetryAttempts(n uint) Option {
	return func(s *DiscordSender) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithBackoff replaces the exponential backoff between attempts.
func WithBackoff(fn func(attempt uint) time.Duration) Option {
	return func(s *DiscordSender) {
		s.backoff = fn
	}
}

type DiscordSender struct {
	poster   ChannelPoster
	limiter  *guildRateLimiter
	attempts uint
	backoff  func(attempt uint) time.Duration
}

func NewDiscordSender(poster ChannelPoster, opts ...Option) *DiscordSender {
	s := &DiscordSender{
		poster:   poster,
		limiter:  newGuildRateLimiter(120),
		attempts: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts n as an embed. Transient failures are retried with backoff;
// permission and validation errors are returned at once.
func (s *DiscordSender) Send(ctx context.Context, channelID string, n Notification) error {
	if s == nil || s.poster == nil {
		return ErrNoSession
	}
	if channelID == "" {
		return ErrNoChannel
	}
	// Bursts queue behind the guild budget; ctx bounds how long.
	if err := s.limiter.Wait(ctx, n.GuildID); err != nil {
		return fmt.Errorf("%w: guild %s: %v", ErrRateLimited, n.GuildID, err)
	}

	embed := toEmbed(n)

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !isPermanent(err)
		}),
		retry.DelayType(func(attempt uint, err error, config retry.DelayContext) time.Duration {
			if s.backoff != nil {
				return s.backoff(attempt)
			}
			return retry.BackOffDelay(attempt, err, config)
		}),
	)
	err := r.Do(func() error {
		_, sendErr := s.poster.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return nil
}

// EvictIdle drops rate limiters for guilds that have not sent within maxAge.
func (s *DiscordSender) EvictIdle(maxAge time.Duration) {
	if n := s.limiter.Evict(maxAge); n > 0 {
		logging.L().Debug("evicted idle guild limiters", zap.Int("count", n))
	}
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (s *DiscordSender) RunEviction(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(maxAge)
		}
	}
}

// isPermanent reports 4xx responses other than 429.
func isPermanent(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return false
	}
	code := restErr.Response.StatusCode
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}
