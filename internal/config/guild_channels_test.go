package config

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	rows      []ChannelRow
	upserts   []ChannelRow
	ensured   int
	upsertErr error
	loadErr   error
}

func (f *fakeBackend) EnsureSchema(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured++
	return nil
}

func (f *fakeBackend) LoadAll(context.Context) ([]ChannelRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, f.loadErr
}

func (f *fakeBackend) Upsert(_ context.Context, row ChannelRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, row)
	return nil
}

func (f *fakeBackend) Close() error { return nil }

func TestChannelStore_ReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	store := NewChannelStore(nil)

	for _, c := range AllCategories {
		_, ok := store.Get("guild-1", c)
		assert.False(t, ok, "category %s configured before Set", c)
	}

	for _, c := range AllCategories {
		dest := "chan-" + string(c)
		require.NoError(t, store.Set(ctx, "guild-1", c, dest))
		got, ok := store.Get("guild-1", c)
		require.True(t, ok)
		assert.Equal(t, dest, got)
	}

	_, ok := store.Get("guild-2", CategoryMessages)
	assert.False(t, ok, "guilds must not share configuration")
}

func TestChannelStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewChannelStore(nil)

	require.NoError(t, store.Set(ctx, "g", CategoryVoice, "a"))
	require.NoError(t, store.Set(ctx, "g", CategoryVoice, "b"))

	got, ok := store.Get("g", CategoryVoice)
	require.True(t, ok)
	assert.Equal(t, "b", got)
}

func TestChannelStore_EmptyChannelClears(t *testing.T) {
	ctx := context.Background()
	store := NewChannelStore(nil)

	require.NoError(t, store.Set(ctx, "g", CategoryRoles, "a"))
	require.NoError(t, store.Set(ctx, "g", CategoryRoles, ""))

	_, ok := store.Get("g", CategoryRoles)
	assert.False(t, ok)
	assert.Empty(t, store.GuildIDs())
}

func TestChannelStore_ValidationLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	store := NewChannelStore(backend)

	err := store.Set(ctx, "g", Category("stickers"), "a")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	err = store.Set(ctx, "", CategoryMessages, "a")
	assert.ErrorIs(t, err, ErrEmptyGuild)

	assert.Empty(t, store.GuildIDs())
	assert.Empty(t, backend.upserts)
}

func TestChannelStore_BackendFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{upsertErr: errors.New("disk full")}
	store := NewChannelStore(backend)

	err := store.Set(ctx, "g", CategoryMessages, "logs")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPersisted)
	assert.Contains(t, err.Error(), "disk full")

	got, ok := store.Get("g", CategoryMessages)
	require.True(t, ok, "in-memory update must survive a failed durable write")
	assert.Equal(t, "logs", got)
}

func TestChannelStore_WritesThroughAndEnsuresSchema(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	store := NewChannelStore(backend)

	require.NoError(t, store.Set(ctx, "g", CategoryInvites, "inv"))
	require.NoError(t, store.Set(ctx, "g", CategoryMembers, "mem"))

	assert.Equal(t, 2, backend.ensured)
	assert.Equal(t, []ChannelRow{
		{GuildID: "g", Category: CategoryInvites, ChannelID: "inv"},
		{GuildID: "g", Category: CategoryMembers, ChannelID: "mem"},
	}, backend.upserts)
	assert.True(t, store.Persistent())
}

func TestChannelStore_LoadAll(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{rows: []ChannelRow{
		{GuildID: "g1", Category: CategoryMessages, ChannelID: "m1"},
		{GuildID: "g1", Category: CategoryVoice, ChannelID: ""},
		{GuildID: "g2", Category: CategoryRoles, ChannelID: "r2"},
		{GuildID: "g3", Category: Category("legacy"), ChannelID: "x"},
	}}
	store := NewChannelStore(backend)

	n, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok := store.Get("g1", CategoryMessages)
	require.True(t, ok)
	assert.Equal(t, "m1", got)

	_, ok = store.Get("g1", CategoryVoice)
	assert.False(t, ok)

	assert.Equal(t, []string{"g1", "g2"}, store.GuildIDs())
}

func TestChannelStore_LoadAllTolerance(t *testing.T) {
	ctx := context.Background()

	n, err := NewChannelStore(nil).LoadAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = NewChannelStore(&fakeBackend{}).LoadAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = NewChannelStore(&fakeBackend{loadErr: errors.New("locked")}).LoadAll(ctx)
	assert.Error(t, err)
}

func TestChannelStore_SnapshotIsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewChannelStore(nil)
	require.NoError(t, store.Set(ctx, "g", CategoryChannels, "c"))

	snap := store.Snapshot("g")
	snap.Channels[CategoryChannels] = "mutated"

	got, _ := store.Get("g", CategoryChannels)
	assert.Equal(t, "c", got)
}
