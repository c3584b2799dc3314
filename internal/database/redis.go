package database

import (
	"context"
	"fmt"

	"go-logrelay/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "logrelay:"
	redisGuildsKey = redisKeyPrefix + "guilds"
)

// guildChannelsKey is the hash holding one field per category for a guild.
func guildChannelsKey(guildID string) string {
	return redisKeyPrefix + "guild:" + guildID + ":channels"
}

// RedisBackend keeps channel configuration in one hash per guild plus a set
// indexing which guilds have a hash.
type RedisBackend struct {
	rdb *redis.Client
}

func OpenRedis(ctx context.Context, addr, password string, db int) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return NewRedisBackend(rdb), nil
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

// EnsureSchema is a no-op: hashes take new fields without migration.
func (b *RedisBackend) EnsureSchema(context.Context) error {
	return nil
}

func (b *RedisBackend) LoadAll(ctx context.Context) ([]config.ChannelRow, error) {
	guilds, err := b.rdb.SMembers(ctx, redisGuildsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}

	var out []config.ChannelRow
	for _, guildID := range guilds {
		fields, err := b.rdb.HGetAll(ctx, guildChannelsKey(guildID)).Result()
		if err != nil {
			return nil, fmt.Errorf("load guild %s: %w", guildID, err)
		}
		for _, c := range config.AllCategories {
			if ch := fields[string(c)]; ch != "" {
				out = append(out, config.ChannelRow{GuildID: guildID, Category: c, ChannelID: ch})
			}
		}
	}
	return out, nil
}

func (b *RedisBackend) Upsert(ctx context.Context, row config.ChannelRow) error {
	if !row.Category.Valid() {
		return fmt.Errorf("%w: %q", config.ErrUnknownCategory, row.Category)
	}
	key := guildChannelsKey(row.GuildID)

	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if row.ChannelID == "" {
			pipe.HDel(ctx, key, string(row.Category))
		} else {
			pipe.HSet(ctx, key, string(row.Category), row.ChannelID)
		}
		pipe.SAdd(ctx, redisGuildsKey, row.GuildID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert %s for guild %s: %w", row.Category, row.GuildID, err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
