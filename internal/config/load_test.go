package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Voice ")
	require.NoError(t, err)
	assert.Equal(t, CategoryVoice, c)

	_, err = ParseCategory("tickets")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategoryColumnRoundTrip(t *testing.T) {
	for _, c := range AllCategories {
		got, ok := CategoryForColumn(c.Column())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
	_, ok := CategoryForColumn("guild_id")
	assert.False(t, ok)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Attribution.FreshnessWindow)
	assert.Equal(t, 6*time.Hour, cfg.Cache.MessageTTL)
	assert.Equal(t, uint(3), cfg.Notifier.RetryAttempts)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
bot:
  token: file-token
database:
  driver: postgres
  url: postgres://relay@localhost/relay
attribution:
  freshness_window: 3s
cache:
  message_ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("LOGRELAY_LOGGER_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Bot.Token)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://relay@localhost/relay", cfg.Database.URL)
	assert.Equal(t, 3*time.Second, cfg.Attribution.FreshnessWindow)
	assert.Equal(t, time.Hour, cfg.Cache.MessageTTL)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 5*time.Minute, cfg.Cache.SweepInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadTokenFallbackAndValidate(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("LOGRELAY_BOT_TOKEN", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)

	t.Setenv("DISCORD_TOKEN", "env-token")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bot.Token = "t"
	cfg.Database.Driver = "mongo"
	assert.Error(t, cfg.Validate())
}
