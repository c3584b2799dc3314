package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "…", Truncate("hello", 1))
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "héé…", Truncate("héééé", 4))
}

func TestDiffStrings(t *testing.T) {
	added, removed := DiffStrings([]string{"a", "b", "c"}, []string{"c", "d", "a"})
	assert.Equal(t, []string{"d"}, added)
	assert.Equal(t, []string{"b"}, removed)

	added, removed = DiffStrings([]string{"x"}, []string{"x"})
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestIsSnowflake(t *testing.T) {
	assert.True(t, IsSnowflake("175928847299117063"))
	assert.False(t, IsSnowflake("logs"))
	assert.False(t, IsSnowflake("123"))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "2.0 MiB", FormatBytes(2*1024*1024))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5m", FormatUptime(5*time.Minute+30*time.Second))
	assert.Equal(t, "2h 0m", FormatUptime(2*time.Hour))
	assert.Equal(t, "1d 3h 7m", FormatUptime(27*time.Hour+7*time.Minute))
}
