package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"critical", LevelCritical},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLoggerWritesFileAndFiltersLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")

	l, err := NewLogger(LevelWarn, path, "console")
	require.NoError(t, err)

	l.Info("hidden %d", 1)
	l.Warn("visible %s", "warning")
	l.Critical("boom")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "visible warning")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "critical")
}

func TestGlobalHelpersBeforeInit(t *testing.T) {
	prev := GlobalLogger
	GlobalLogger = nil
	defer func() { GlobalLogger = prev }()

	assert.NotPanics(t, func() {
		Info("no logger yet")
		Warn("still none")
	})
	assert.NotNil(t, L())
	assert.NoError(t, Close())
}

func TestLogRotation_RotatesOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	lr := NewLogRotation(5, 0, 0)
	assert.True(t, lr.ShouldRotate(path))

	require.NoError(t, lr.prepare(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "original moved aside")

	rotated, err := filepath.Glob(filepath.Join(dir, "relay-*.log"))
	require.NoError(t, err)
	assert.Len(t, rotated, 1)
}

func TestLogRotation_LeavesSmallFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	lr := NewLogRotation(1024, time.Hour, 3)
	assert.False(t, lr.ShouldRotate(path))
	assert.False(t, lr.ShouldRotate(path+".missing"))

	lr.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.True(t, lr.ShouldRotate(path), "too old")
}

func TestLogRotation_PruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.log")
	for _, stamp := range []string{"20240101-000000", "20240102-000000", "20240103-000000"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "relay-"+stamp+".log"), nil, 0o644))
	}

	removed, err := NewLogRotation(0, 0, 2).Prune(path)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(dir, "relay-20240101-000000.log"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "relay-20240103-000000.log"))
	assert.NoError(t, err)
}
