package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bot         BotConfig         `mapstructure:"bot"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Attribution AttributionConfig `mapstructure:"attribution"`
	Notifier    NotifierConfig    `mapstructure:"notifier"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logger      LoggerConfig      `mapstructure:"logger"`
}

type BotConfig struct {
	Token string `mapstructure:"token"`
	// CommandGuildID registers slash commands on one guild instead of globally.
	CommandGuildID string        `mapstructure:"command_guild_id"`
	HandleTimeout  time.Duration `mapstructure:"handle_timeout"`
}

type DatabaseConfig struct {
	Driver        string `mapstructure:"driver"` // sqlite, postgres, redis, none
	Path          string `mapstructure:"path"`
	URL           string `mapstructure:"url"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type CacheConfig struct {
	MessageTTL    time.Duration `mapstructure:"message_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type AttributionConfig struct {
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type NotifierConfig struct {
	RatePerMinute int  `mapstructure:"rate_per_minute"`
	RetryAttempts uint `mapstructure:"retry_attempts"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json
	Path   string `mapstructure:"path"`
}

var ErrMissingToken = errors.New("discord token is not set (DISCORD_TOKEN)")

// Load reads path when given, otherwise looks for config.yaml in . and
// ./configs. A missing search-path file is not an error: env and defaults
// still apply. LOGRELAY_<SECTION>_<KEY> overrides any key.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("LOGRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Plain names kept from the first bot.
	if cfg.Bot.Token == "" {
		cfg.Bot.Token = os.Getenv("DISCORD_TOKEN")
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.command_guild_id", "")
	v.SetDefault("bot.handle_timeout", 15*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "logrelay.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.redis_addr", "localhost:6379")
	v.SetDefault("database.redis_password", "")
	v.SetDefault("database.redis_db", 0)

	v.SetDefault("cache.message_ttl", 6*time.Hour)
	v.SetDefault("cache.sweep_interval", 5*time.Minute)

	v.SetDefault("attribution.freshness_window", 5*time.Second)
	v.SetDefault("attribution.breaker_failures", 5)
	v.SetDefault("attribution.breaker_timeout", time.Minute)

	v.SetDefault("notifier.rate_per_minute", 120)
	v.SetDefault("notifier.retry_attempts", 3)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.path", "")
}

// DefaultConfig returns the defaults without reading any file or env.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return ErrMissingToken
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "redis", "none", "":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}
