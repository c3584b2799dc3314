package bootstrap

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"go-logrelay/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Bot.Token = "test-token"
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "relay.db")
	return cfg
}

func TestInitialize_RequiresToken(t *testing.T) {
	cfg := config.DefaultConfig()
	err := New(cfg).Initialize(context.Background())
	assert.ErrorIs(t, err, config.ErrMissingToken)

	err = New(nil).Initialize(context.Background())
	assert.Error(t, err)
}

func TestStart_RequiresInitialize(t *testing.T) {
	err := New(testConfig(t)).Start(context.Background())
	assert.Error(t, err)
}

func TestWire_LoadsPersistedChannels(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := Wire(ctx, cfg)
	require.NoError(t, err)
	require.True(t, first.Store.Persistent())
	require.NoError(t, first.Store.Set(ctx, "g", config.CategoryVoice, "c1"))
	require.NoError(t, Shutdown(ctx, first))

	second, err := Wire(ctx, cfg)
	require.NoError(t, err)
	defer Shutdown(ctx, second)

	dest, ok := second.Store.Get("g", config.CategoryVoice)
	require.True(t, ok)
	assert.Equal(t, "c1", dest)
	assert.Nil(t, second.Exporter, "metrics disabled by default")
	assert.NotNil(t, second.Router)
	assert.NotNil(t, second.Commands)
	assert.NotNil(t, second.Watchdog)
}

func TestWire_MemoryOnlyWhenBackendFails(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Database.Driver = "postgres"
	cfg.Database.URL = ""

	c, err := Wire(ctx, cfg)
	require.NoError(t, err)
	defer Shutdown(ctx, c)

	assert.False(t, c.Store.Persistent())
	require.NoError(t, c.Store.Set(ctx, "g", config.CategoryRoles, "c2"))
}

func TestWire_DatabaseDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Database.Driver = "none"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = "127.0.0.1:0"

	c, err := Wire(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, c.Store.Persistent())
	assert.NotNil(t, c.Exporter)
	require.NoError(t, Shutdown(ctx, c))
}

func TestStartBackground_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "none"
	c, err := Wire(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	StartBackground(ctx, &wg, cfg, c)
	cancel()
	wg.Wait()

	require.NoError(t, Shutdown(context.Background(), c))
}
