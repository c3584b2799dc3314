package config

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrEmptyGuild = errors.New("guild id is empty")
	// ErrNotPersisted wraps a durable write failure. The in-memory view has
	// already been updated when it is returned.
	ErrNotPersisted = errors.New("channel configuration not persisted")
)

// ChannelRow is one (guild, category, destination) triple as stored durably.
type ChannelRow struct {
	GuildID   string
	Category  Category
	ChannelID string
}

// Backend is the durable side of the channel store. Implementations live in
// internal/database.
type Backend interface {
	// EnsureSchema creates or widens the durable schema. Safe to call repeatedly.
	EnsureSchema(ctx context.Context) error
	// LoadAll returns every configured destination. A missing or empty store
	// yields no rows and no error.
	LoadAll(ctx context.Context) ([]ChannelRow, error)
	Upsert(ctx context.Context, row ChannelRow) error
	Close() error
}

// GuildChannels is a copy of one guild's destinations.
type GuildChannels struct {
	GuildID  string
	Channels map[Category]string
}

// ChannelStore maps guild + category to a destination channel. Memory is
// authoritative for the process lifetime; the backend is written through
// opportunistically.
type ChannelStore struct {
	mu      sync.RWMutex
	guilds  map[string]map[Category]string
	backend Backend
}

// NewChannelStore creates a store. A nil backend runs memory-only.
func NewChannelStore(backend Backend) *ChannelStore {
	return &ChannelStore{
		guilds:  make(map[string]map[Category]string),
		backend: backend,
	}
}

// Persistent reports whether writes reach a durable backend.
func (s *ChannelStore) Persistent() bool {
	return s.backend != nil
}

func (s *ChannelStore) Get(guildID string, category Category) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels, ok := s.guilds[guildID]
	if !ok {
		return "", false
	}
	dest := channels[category]
	return dest, dest != ""
}

// Set records a destination. An empty channelID clears the category.
// Validation errors leave the store untouched; a backend failure returns an
// error wrapping ErrNotPersisted but keeps the in-memory update.
func (s *ChannelStore) Set(ctx context.Context, guildID string, category Category, channelID string) error {
	if guildID == "" {
		return ErrEmptyGuild
	}
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	s.put(guildID, category, channelID)

	if s.backend == nil {
		return nil
	}

	if err := s.backend.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrNotPersisted, err)
	}
	row := ChannelRow{GuildID: guildID, Category: category, ChannelID: channelID}
	if err := s.backend.Upsert(ctx, row); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}
	return nil
}

func (s *ChannelStore) put(guildID string, category Category, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels, ok := s.guilds[guildID]
	if !ok {
		channels = make(map[Category]string, len(AllCategories))
		s.guilds[guildID] = channels
	}
	if channelID == "" {
		delete(channels, category)
		return
	}
	channels[category] = channelID
}

// LoadAll hydrates memory from the backend and returns the number of rows
// applied. Rows for unknown categories are skipped.
func (s *ChannelStore) LoadAll(ctx context.Context) (int, error) {
	if s.backend == nil {
		return 0, nil
	}

	rows, err := s.backend.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load channel configuration: %w", err)
	}

	applied := 0
	for _, row := range rows {
		if row.GuildID == "" || !row.Category.Valid() || row.ChannelID == "" {
			continue
		}
		s.put(row.GuildID, row.Category, row.ChannelID)
		applied++
	}
	return applied, nil
}

func (s *ChannelStore) Snapshot(guildID string) GuildChannels {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := GuildChannels{GuildID: guildID, Channels: make(map[Category]string)}
	for c, dest := range s.guilds[guildID] {
		out.Channels[c] = dest
	}
	return out
}

// GuildIDs returns every guild with at least one configured category, sorted.
func (s *ChannelStore) GuildIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.guilds))
	for id, channels := range s.guilds {
		if len(channels) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *ChannelStore) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
