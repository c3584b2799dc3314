package watchdog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestWatchdog() (*Watchdog, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	w := NewWatchdog(time.Second)
	w.now = clock.Now
	return w, clock
}

func TestHeartbeatComponent(t *testing.T) {
	w, clock := newTestWatchdog()
	w.RegisterComponent("sweeper", time.Minute)

	assert.Empty(t, w.Check(), "no heartbeat yet")
	assert.True(t, w.IsHealthy("sweeper"))

	w.Heartbeat("sweeper")
	clock.Advance(30 * time.Second)
	assert.Empty(t, w.Check())

	clock.Advance(time.Minute)
	assert.Equal(t, []string{"sweeper"}, w.Check())
	assert.False(t, w.IsHealthy("sweeper"))
	assert.EqualError(t, w.Healthy(), "unhealthy: sweeper")

	w.Heartbeat("sweeper")
	assert.True(t, w.IsHealthy("sweeper"))
	assert.NoError(t, w.Healthy())
}

func TestPulseComponent(t *testing.T) {
	w, clock := newTestWatchdog()
	var last time.Time
	w.RegisterPulse("gateway", 2*time.Minute, func() time.Time { return last })

	assert.Empty(t, w.Check(), "zero pulse is skipped")

	last = clock.Now()
	clock.Advance(3 * time.Minute)
	assert.Equal(t, []string{"gateway"}, w.Check())

	last = clock.Now()
	assert.Empty(t, w.Check())
	assert.Equal(t, map[string]bool{"gateway": true}, w.GetStatus())
}

func TestUnknownComponent(t *testing.T) {
	w, _ := newTestWatchdog()
	w.Heartbeat("missing")
	assert.False(t, w.IsHealthy("missing"))
	assert.Empty(t, w.GetStatus())
	assert.NoError(t, w.Healthy())
}

func TestRunStopsOnCancel(t *testing.T) {
	w := NewWatchdog(5 * time.Millisecond)
	checked := make(chan struct{}, 1)
	w.RegisterPulse("gateway", time.Minute, func() time.Time {
		select {
		case checked <- struct{}{}:
		default:
		}
		return time.Now()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-checked:
	case <-time.After(time.Second):
		t.Fatal("watchdog never checked")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "Run did not return after cancel")
	}
}

func TestNewWatchdogDefaultsInterval(t *testing.T) {
	assert.Equal(t, defaultCheckInterval, NewWatchdog(0).checkInterval)
}
