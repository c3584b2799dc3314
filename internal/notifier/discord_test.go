package notifier

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakePoster struct {
	mu     sync.Mutex
	errs   []error
	calls  int
	sent   []*discordgo.MessageEmbed
	target []string
}

func (f *fakePoster) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.sent = append(f.sent, embed)
	f.target = append(f.target, channelID)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func restError(code int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: code}}
}

func noBackoff(uint) time.Duration { return 0 }

func TestSend_Success(t *testing.T) {
	poster := &fakePoster{}
	s := NewDiscordSender(poster, WithBackoff(noBackoff))

	n := Notification{GuildID: "g", Title: "Message deleted", Color: ColorRed, Timestamp: time.Unix(0, 0)}
	n.AddField("Content", "hello", false)
	n.AddField("Empty", "", false)

	require.NoError(t, s.Send(context.Background(), "logs", n))
	require.Len(t, poster.sent, 1)
	assert.Equal(t, "logs", poster.target[0])
	assert.Equal(t, "Message deleted", poster.sent[0].Title)
	require.Len(t, poster.sent[0].Fields, 1)
	assert.Equal(t, "hello", poster.sent[0].Fields[0].Value)
	assert.Equal(t, "1970-01-01T00:00:00Z", poster.sent[0].Timestamp)
}

func TestSend_RetriesTransientErrors(t *testing.T) {
	poster := &fakePoster{errs: []error{errors.New("connection reset"), restError(http.StatusBadGateway)}}
	s := NewDiscordSender(poster, WithRetryAttempts(3), WithBackoff(noBackoff))

	require.NoError(t, s.Send(context.Background(), "logs", Notification{GuildID: "g", Title: "t"}))
	assert.Equal(t, 3, poster.calls)
	assert.Len(t, poster.sent, 1)
}

func TestSend_PermanentErrorNotRetried(t *testing.T) {
	poster := &fakePoster{errs: []error{restError(http.StatusForbidden)}}
	s := NewDiscordSender(poster, WithRetryAttempts(5), WithBackoff(noBackoff))

	err := s.Send(context.Background(), "logs", Notification{GuildID: "g", Title: "t"})
	require.Error(t, err)
	assert.Equal(t, 1, poster.calls)

	var restErr *discordgo.RESTError
	assert.True(t, errors.As(err, &restErr))
}

func TestSend_GivesUpAfterAttempts(t *testing.T) {
	boom := errors.New("gateway timeout")
	poster := &fakePoster{errs: []error{boom, boom, boom, boom}}
	s := NewDiscordSender(poster, WithRetryAttempts(2), WithBackoff(noBackoff))

	err := s.Send(context.Background(), "logs", Notification{GuildID: "g"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway timeout")
	assert.Equal(t, 2, poster.calls)
}

func TestSend_Guards(t *testing.T) {
	var nilSender *DiscordSender
	assert.ErrorIs(t, nilSender.Send(context.Background(), "c", Notification{}), ErrNoSession)
	assert.ErrorIs(t, NewDiscordSender(nil).Send(context.Background(), "c", Notification{}), ErrNoSession)
	assert.ErrorIs(t, NewDiscordSender(&fakePoster{}).Send(context.Background(), "", Notification{}), ErrNoChannel)
}

func TestSend_RateLimitedPerGuild(t *testing.T) {
	poster := &fakePoster{}
	s := NewDiscordSender(poster, WithRatePerMinute(1), WithBackoff(noBackoff))

	require.NoError(t, s.Send(context.Background(), "c", Notification{GuildID: "g1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Send(ctx, "c", Notification{GuildID: "g1"}), ErrRateLimited, "next slot is a minute away")
	assert.NoError(t, s.Send(ctx, "c", Notification{GuildID: "g2"}), "other guilds keep their own budget")
	assert.Equal(t, 2, poster.calls)
}

func TestSend_BurstIsPacedNotDropped(t *testing.T) {
	poster := &fakePoster{}
	s := NewDiscordSender(poster, WithBackoff(noBackoff))
	s.limiter = newGuildRateLimiterWith(rate.Limit(200), 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	for i := 0; i < 12; i++ {
		require.NoError(t, s.Send(ctx, "c", Notification{GuildID: "g"}))
	}
	assert.Len(t, poster.sent, 12)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "10 sends past the burst wait 5ms each")
}

func TestSend_PermanentErrorAfterTransient(t *testing.T) {
	poster := &fakePoster{errs: []error{restError(http.StatusBadGateway), restError(http.StatusNotFound)}}
	s := NewDiscordSender(poster, WithRetryAttempts(5), WithBackoff(noBackoff))

	err := s.Send(context.Background(), "logs", Notification{GuildID: "g"})
	require.Error(t, err)
	assert.Equal(t, 2, poster.calls, "404 stops the retries")

	var restErr *discordgo.RESTError
	require.True(t, errors.As(err, &restErr))
	assert.Equal(t, http.StatusNotFound, restErr.Response.StatusCode)
}

func TestGuildRateLimiterEvict(t *testing.T) {
	ctx := context.Background()
	l := newGuildRateLimiter(60)
	require.NoError(t, l.Wait(ctx, "g1"))
	require.NoError(t, l.Wait(ctx, "g2"))
	assert.Equal(t, 2, l.Len())

	assert.Zero(t, l.Evict(time.Hour))
	assert.Equal(t, 2, l.Evict(-time.Second))
	assert.Zero(t, l.Len())

	var disabled *guildRateLimiter = newGuildRateLimiter(0)
	assert.NoError(t, disabled.Wait(ctx, "g"))
}

func TestToEmbedLimits(t *testing.T) {
	n := Notification{
		Title:        strings.Repeat("t", 300),
		ThumbnailURL: "https://cdn/avatar.png",
		ImageURL:     "https://cdn/img.png",
		AuthorName:   "user#0001",
		Footer:       "ID: 1",
	}
	for i := 0; i < 30; i++ {
		n.AddField("f", strings.Repeat("v", 2000), true)
	}

	e := toEmbed(n)
	assert.Equal(t, maxTitle, len([]rune(e.Title)))
	assert.Len(t, e.Fields, maxFields)
	assert.Equal(t, maxFieldValue, len([]rune(e.Fields[0].Value)))
	assert.Equal(t, "https://cdn/avatar.png", e.Thumbnail.URL)
	assert.Equal(t, "https://cdn/img.png", e.Image.URL)
	assert.Equal(t, "user#0001", e.Author.Name)
	assert.Equal(t, "ID: 1", e.Footer.Text)
	assert.Empty(t, e.Timestamp)
}
