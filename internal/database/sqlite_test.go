package database

import (
	"context"
	"path/filepath"
	"testing"

	"go-logrelay/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLite(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSQLite_MissingTableLoadsNothing(t *testing.T) {
	b := openTestSQLite(t)

	rows, err := b.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_UpsertKeepsOtherColumns(t *testing.T) {
	ctx := context.Background()
	b := openTestSQLite(t)
	require.NoError(t, b.EnsureSchema(ctx))

	require.NoError(t, b.Upsert(ctx, config.ChannelRow{GuildID: "g", Category: config.CategoryMessages, ChannelID: "m"}))
	require.NoError(t, b.Upsert(ctx, config.ChannelRow{GuildID: "g", Category: config.CategoryVoice, ChannelID: "v"}))
	require.NoError(t, b.Upsert(ctx, config.ChannelRow{GuildID: "g", Category: config.CategoryVoice, ChannelID: "v2"}))

	rows, err := b.LoadAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []config.ChannelRow{
		{GuildID: "g", Category: config.CategoryMessages, ChannelID: "m"},
		{GuildID: "g", Category: config.CategoryVoice, ChannelID: "v2"},
	}, rows)
}

func TestSQLite_ClearWritesNull(t *testing.T) {
	ctx := context.Background()
	b := openTestSQLite(t)
	require.NoError(t, b.EnsureSchema(ctx))

	require.NoError(t, b.Upsert(ctx, config.ChannelRow{GuildID: "g", Category: config.CategoryRoles, ChannelID: "r"}))
	require.NoError(t, b.Upsert(ctx, config.ChannelRow{GuildID: "g", Category: config.CategoryRoles, ChannelID: ""}))

	rows, err := b.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_WidensOlderSchema(t *testing.T) {
	ctx := context.Background()
	b := openTestSQLite(t)

	_, err := b.DB().Exec(`CREATE TABLE ` + channelsTable + ` (guild_id TEXT PRIMARY KEY, messages_channel_id TEXT)`)
	require.NoError(t, err)
	_, err = b.DB().Exec(`INSERT INTO `+channelsTable+` (guild_id, messages_channel_id) VALUES (?, ?)`, "old", "legacy-logs")
	require.NoError(t, err)

	rows, err := b.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []config.ChannelRow{{GuildID: "old", Category: config.CategoryMessages, ChannelID: "legacy-logs"}}, rows)

	require.NoError(t, b.EnsureSchema(ctx))
	require.NoError(t, b.EnsureSchema(ctx), "second run must not try to re-add columns")

	cols, err := b.columns(ctx)
	require.NoError(t, err)
	assert.True(t, cols["updated_at"], "missing column updated_at")
	for _, c := range config.AllCategories {
		assert.True(t, cols[c.Column()], "missing column %s", c.Column())
	}

	require.NoError(t, b.Upsert(ctx, config.ChannelRow{GuildID: "old", Category: config.CategoryInvites, ChannelID: "inv"}))
	rows, err = b.LoadAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []config.ChannelRow{
		{GuildID: "old", Category: config.CategoryMessages, ChannelID: "legacy-logs"},
		{GuildID: "old", Category: config.CategoryInvites, ChannelID: "inv"},
	}, rows)
}

func TestSQLite_ChannelStoreWritesToOlderSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "relay.db")

	b, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = b.DB().Exec(`CREATE TABLE ` + channelsTable + ` (guild_id TEXT PRIMARY KEY, messages_channel_id TEXT)`)
	require.NoError(t, err)

	store := config.NewChannelStore(b)
	require.NoError(t, store.Set(ctx, "g", config.CategoryVoice, "c1"))
	require.NoError(t, store.Set(ctx, "g", config.CategoryVoice, "c2"))
	require.NoError(t, store.Close())

	b, err = OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	rows, err := b.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []config.ChannelRow{{GuildID: "g", Category: config.CategoryVoice, ChannelID: "c2"}}, rows)
}

func TestSQLite_ChannelStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "relay.db")

	b, err := OpenSQLite(path)
	require.NoError(t, err)
	store := config.NewChannelStore(b)
	require.NoError(t, store.Set(ctx, "g1", config.CategoryMembers, "mem"))
	require.NoError(t, store.Set(ctx, "g2", config.CategoryChannels, "chn"))
	require.NoError(t, store.Close())

	b, err = OpenSQLite(path)
	require.NoError(t, err)
	reloaded := config.NewChannelStore(b)
	t.Cleanup(func() { reloaded.Close() })

	n, err := reloaded.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok := reloaded.Get("g1", config.CategoryMembers)
	require.True(t, ok)
	assert.Equal(t, "mem", got)
	got, ok = reloaded.Get("g2", config.CategoryChannels)
	require.True(t, ok)
	assert.Equal(t, "chn", got)
}

func TestSQLite_UpsertRejectsUnknownCategory(t *testing.T) {
	b := openTestSQLite(t)
	err := b.Upsert(context.Background(), config.ChannelRow{GuildID: "g", Category: "stickers", ChannelID: "x"})
	assert.ErrorIs(t, err, config.ErrUnknownCategory)
}
