package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-logrelay/internal/config"
)

// channelsTable holds one row per guild and one nullable column per log
// category (see config.Category.Column).
const channelsTable = "guild_log_channels"

var ErrUnknownDriver = errors.New("unknown database driver")

// Open connects the backend selected by cfg.Driver. Driver "none" returns a
// nil backend and the channel store runs memory-only.
func Open(ctx context.Context, cfg config.DatabaseConfig) (config.Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		b, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "postgres", "postgresql":
		if cfg.URL == "" {
			return nil, fmt.Errorf("postgres driver needs database.url")
		}
		b, err := OpenPostgres(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "redis":
		b, err := OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// rowsFromColumns turns one scanned guild row into channel rows, skipping
// columns that are NULL or empty.
func rowsFromColumns(guildID string, columns []string, values []*string) []config.ChannelRow {
	var out []config.ChannelRow
	for i, col := range columns {
		category, ok := config.CategoryForColumn(col)
		if !ok || values[i] == nil || *values[i] == "" {
			continue
		}
		out = append(out, config.ChannelRow{
			GuildID:   guildID,
			Category:  category,
			ChannelID: *values[i],
		})
	}
	return out
}

// updatedAtColumn stamps the last write per guild. Tables created before
// it existed get it added like any missing category column.
const updatedAtColumn = "updated_at"

// missingColumns lists columns absent from existing: updated_at first, then
// the category columns in schema order.
func missingColumns(existing map[string]bool) []string {
	var missing []string
	if !existing[updatedAtColumn] {
		missing = append(missing, updatedAtColumn)
	}
	for _, c := range config.AllCategories {
		if !existing[c.Column()] {
			missing = append(missing, c.Column())
		}
	}
	return missing
}

// presentCategoryColumns filters existing down to known category columns, in
// schema order, so reads never name a column the table does not have.
func presentCategoryColumns(existing map[string]bool) []string {
	var cols []string
	for _, c := range config.AllCategories {
		if existing[c.Column()] {
			cols = append(cols, c.Column())
		}
	}
	return cols
}

// nullable maps "" to NULL so cleared categories read back as not configured.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
