package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-logrelay/internal/config"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores channel configuration in a local SQLite file.
type SQLiteBackend struct {
	db *sql.DB
	// schemaMu serialises EnsureSchema so two writers never race on ALTER TABLE.
	schemaMu sync.Mutex
}

// OpenSQLite opens (creating if needed) the database file. The schema is not
// touched here; EnsureSchema runs on the write path and from `migrate`.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return &SQLiteBackend{db: db}, nil
}

// EnsureSchema creates the table if missing and adds any column a previous
// release did not have. Existing rows keep their values; new category
// columns start NULL, which reads as "not configured".
func (b *SQLiteBackend) EnsureSchema(ctx context.Context) error {
	b.schemaMu.Lock()
	defer b.schemaMu.Unlock()

	_, err := b.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+channelsTable+` (
		guild_id TEXT PRIMARY KEY,
		updated_at INTEGER DEFAULT 0
	)`)
	if err != nil {
		return fmt.Errorf("create %s: %w", channelsTable, err)
	}

	existing, err := b.columns(ctx)
	if err != nil {
		return err
	}
	for _, col := range missingColumns(existing) {
		if _, err := b.db.ExecContext(ctx, `ALTER TABLE `+channelsTable+` ADD COLUMN `+col+` `+sqliteColumnType(col)); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}
	return nil
}

func sqliteColumnType(col string) string {
	if col == updatedAtColumn {
		return "INTEGER DEFAULT 0"
	}
	return "TEXT"
}

// columns returns the current column set; empty when the table is missing.
func (b *SQLiteBackend) columns(ctx context.Context) (map[string]bool, error) {
	rows, err := b.db.QueryContext(ctx, `PRAGMA table_info(`+channelsTable+`)`)
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// LoadAll reads whichever category columns the table currently has, so a
// file written by an older release loads without being widened first.
func (b *SQLiteBackend) LoadAll(ctx context.Context) ([]config.ChannelRow, error) {
	existing, err := b.columns(ctx)
	if err != nil {
		return nil, err
	}
	if !existing["guild_id"] {
		return nil, nil
	}
	cols := presentCategoryColumns(existing)
	if len(cols) == 0 {
		return nil, nil
	}

	query := `SELECT guild_id, ` + strings.Join(cols, ", ") + ` FROM ` + channelsTable
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", channelsTable, err)
	}
	defer rows.Close()

	var out []config.ChannelRow
	for rows.Next() {
		var guildID string
		values := make([]sql.NullString, len(cols))
		dest := make([]any, 0, len(cols)+1)
		dest = append(dest, &guildID)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", channelsTable, err)
		}

		ptrs := make([]*string, len(values))
		for i := range values {
			if values[i].Valid {
				ptrs[i] = &values[i].String
			}
		}
		out = append(out, rowsFromColumns(guildID, cols, ptrs)...)
	}
	return out, rows.Err()
}

// Upsert writes one category column, leaving the guild's other columns as they are.
func (b *SQLiteBackend) Upsert(ctx context.Context, row config.ChannelRow) error {
	if !row.Category.Valid() {
		return fmt.Errorf("%w: %q", config.ErrUnknownCategory, row.Category)
	}
	col := row.Category.Column()

	_, err := b.db.ExecContext(ctx,
		`INSERT INTO `+channelsTable+` (guild_id, `+col+`, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET `+col+` = excluded.`+col+`, updated_at = excluded.updated_at`,
		row.GuildID, nullable(row.ChannelID), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s for guild %s: %w", col, row.GuildID, err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// DB exposes the handle for tests and one-off admin queries.
func (b *SQLiteBackend) DB() *sql.DB {
	return b.db
}
