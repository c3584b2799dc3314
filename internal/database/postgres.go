package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go-logrelay/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend is the shared-database variant for running several
// relay processes against one configuration.
type PostgresBackend struct {
	pool     *pgxpool.Pool
	schemaMu sync.Mutex
}

func OpenPostgres(ctx context.Context, url string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	b.schemaMu.Lock()
	defer b.schemaMu.Unlock()

	for _, stmt := range postgresSchemaSQL() {
		if _, err := b.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure %s schema: %w", channelsTable, err)
		}
	}
	return nil
}

// postgresSchemaSQL creates the table and widens an older one. Every
// statement is idempotent.
func postgresSchemaSQL() []string {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + channelsTable + ` (
		guild_id TEXT PRIMARY KEY,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
		`ALTER TABLE ` + channelsTable + ` ADD COLUMN IF NOT EXISTS ` + updatedAtColumn + ` TIMESTAMPTZ NOT NULL DEFAULT now()`,
	}
	for _, c := range config.AllCategories {
		stmts = append(stmts, `ALTER TABLE `+channelsTable+` ADD COLUMN IF NOT EXISTS `+c.Column()+` TEXT`)
	}
	return stmts
}

func postgresUpsertSQL(col string) string {
	return `INSERT INTO ` + channelsTable + ` (guild_id, ` + col + `, ` + updatedAtColumn + `) VALUES ($1, $2, now())
		 ON CONFLICT (guild_id) DO UPDATE SET ` + col + ` = EXCLUDED.` + col + `, ` + updatedAtColumn + ` = now()`
}

func (b *PostgresBackend) columns(ctx context.Context) (map[string]bool, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = $1`, channelsTable)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan columns: %w", err)
	}

	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	return cols, nil
}

func (b *PostgresBackend) LoadAll(ctx context.Context) ([]config.ChannelRow, error) {
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

	rows, err := b.pool.Query(ctx, `SELECT guild_id, `+strings.Join(cols, ", ")+` FROM `+channelsTable)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", channelsTable, err)
	}
	defer rows.Close()

	var out []config.ChannelRow
	for rows.Next() {
		var guildID string
		values := make([]*string, len(cols))
		dest := make([]any, 0, len(cols)+1)
		dest = append(dest, &guildID)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", channelsTable, err)
		}
		out = append(out, rowsFromColumns(guildID, cols, values)...)
	}
	return out, rows.Err()
}

func (b *PostgresBackend) Upsert(ctx context.Context, row config.ChannelRow) error {
	if !row.Category.Valid() {
		return fmt.Errorf("%w: %q", config.ErrUnknownCategory, row.Category)
	}
	col := row.Category.Column()

	tag, err := b.pool.Exec(ctx, postgresUpsertSQL(col), row.GuildID, nullable(row.ChannelID))
	if err != nil {
		return fmt.Errorf("upsert %s for guild %s: %w", col, row.GuildID, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New("upsert affected no rows")
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
