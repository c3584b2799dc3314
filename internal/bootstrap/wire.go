package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-logrelay/internal/bot"
	"go-logrelay/internal/commands"
	"go-logrelay/internal/config"
	"go-logrelay/internal/database"
	"go-logrelay/internal/forensics"
	"go-logrelay/internal/logging"
	"go-logrelay/internal/metrics"
	"go-logrelay/internal/notifier"
	"go-logrelay/internal/router"
	"go-logrelay/internal/state"
	"go-logrelay/internal/watchdog"
)

// Idle per-guild send limiters are dropped after this long.
const (
	limiterEvictInterval = 10 * time.Minute
	limiterMaxIdle       = time.Hour
)

// Discord heartbeats roughly every 41s; three missed acks mark the
// gateway unhealthy.
const (
	gatewayCheckInterval = 30 * time.Second
	gatewayAckThreshold  = 2 * time.Minute
)

// Wire builds every component from cfg. A backend that cannot be opened
// or read is logged and the relay runs memory-only.
func Wire(ctx context.Context, cfg *config.Config) (*Components, error) {
	logging.Info("Wiring components...")

	store := openStore(ctx, cfg.Database)

	session, err := bot.New(cfg.Bot.Token)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	platform := bot.NewPlatform(session.Discord())

	reg := metrics.NewRegistry()

	messages := state.NewRecentCache[state.MessageSnapshot](state.WithTTL(cfg.Cache.MessageTTL))
	roles := state.NewRecentCache[state.RoleSnapshot](state.WithTTL(0))
	channels := state.NewRecentCache[state.ChannelSnapshot](state.WithTTL(0))
	invites := state.NewInviteTracker(platform)

	resolver := forensics.NewResolver(platform,
		forensics.WithWindow(cfg.Attribution.FreshnessWindow),
		forensics.WithBreaker(cfg.Attribution.BreakerFailures, cfg.Attribution.BreakerTimeout),
		forensics.WithObserver(func(action forensics.AuditAction, result string) {
			reg.ObserveAttribution(action.String(), result)
		}),
	)

	sender := notifier.NewDiscordSender(session.Discord(),
		notifier.WithRatePerMinute(cfg.Notifier.RatePerMinute),
		notifier.WithRetryAttempts(cfg.Notifier.RetryAttempts),
	)

	r := router.New(router.Deps{
		Destinations:  store,
		Sender:        sender,
		Attributor:    resolver,
		Messages:      messages,
		Roles:         roles,
		Channels:      channels,
		Invites:       invites,
		Metrics:       reg,
		HandleTimeout: cfg.Bot.HandleTimeout,
	})

	session.SetupEventHandlers(r, invites)

	stats := func() commands.RuntimeStats {
		return commands.RuntimeStats{
			CachedMessages: messages.Len(),
			InviteGuilds:   invites.Tracked(),
			Guilds:         session.GuildCount(),
		}
	}
	wd := watchdog.NewWatchdog(gatewayCheckInterval)
	wd.RegisterPulse("gateway", gatewayAckThreshold, session.LastHeartbeatAck)

	registerGauges(reg, stats, store, wd)

	c := &Components{
		Store:    store,
		Messages: messages,
		Roles:    roles,
		Channels: channels,
		Invites:  invites,
		Session:  session,
		Resolver: resolver,
		Sender:   sender,
		Router:   r,
		Commands: commands.NewHandler(commands.Deps{Store: store, Metrics: reg, Stats: stats}),
		Metrics:  reg,
		Watchdog: wd,
	}
	if cfg.Metrics.Enabled {
		c.Exporter = metrics.NewExporter(cfg.Metrics.Addr, reg, func() error {
			if err := session.Healthy(); err != nil {
				return err
			}
			return wd.Healthy()
		})
	}

	logging.Info("Component wiring complete")
	return c, nil
}

func openStore(ctx context.Context, dc config.DatabaseConfig) *config.ChannelStore {
	backend, err := database.Open(ctx, dc)
	if err != nil {
		logging.Warn("Database unavailable, log channels will not survive a restart: %v", err)
		return config.NewChannelStore(nil)
	}
	if backend == nil {
		logging.Info("Database disabled, running memory-only")
		return config.NewChannelStore(nil)
	}

	if err := backend.EnsureSchema(ctx); err != nil {
		logging.Warn("Failed to ensure schema: %v", err)
	}
	store := config.NewChannelStore(backend)
	n, err := store.LoadAll(ctx)
	if err != nil {
		logging.Warn("Failed to load log channels: %v", err)
	} else {
		logging.Info("Loaded %d log channel settings", n)
	}
	return store
}

func registerGauges(reg *metrics.Registry, stats func() commands.RuntimeStats, store *config.ChannelStore, wd *watchdog.Watchdog) {
	reg.RegisterGauge("cached_messages", "Messages held for delete and edit reports.", func() float64 {
		return float64(stats().CachedMessages)
	})
	reg.RegisterGauge("invite_guilds", "Guilds with a tracked invite snapshot.", func() float64 {
		return float64(stats().InviteGuilds)
	})
	reg.RegisterGauge("configured_guilds", "Guilds with at least one log channel.", func() float64 {
		return float64(len(store.GuildIDs()))
	})
	reg.RegisterGauge("gateway_healthy", "1 while the gateway acknowledges heartbeats.", func() float64 {
		if wd.IsHealthy("gateway") {
			return 1
		}
		return 0
	})
}

// StartBackground runs the cache sweeps, limiter eviction and the
// gateway watchdog until ctx is cancelled.
func StartBackground(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, c *Components) {
	wg.Add(3)
	go func() {
		defer wg.Done()
		c.Messages.Run(ctx, cfg.Cache.SweepInterval)
	}()
	go func() {
		defer wg.Done()
		c.Sender.RunEviction(ctx, limiterEvictInterval, limiterMaxIdle)
	}()
	go func() {
		defer wg.Done()
		c.Watchdog.Run(ctx)
	}()
}

// StartAll connects the gateway, then publishes the commands and starts
// the exporter.
func StartAll(cfg *config.Config, c *Components) error {
	logging.Info("Starting components...")

	if c.Exporter != nil {
		c.Exporter.Start()
	}

	if err := c.Session.Connect(); err != nil {
		return fmt.Errorf("gateway connection failed: %w", err)
	}

	if err := c.Commands.Register(c.Session, cfg.Bot.CommandGuildID); err != nil {
		// Commands are optional; events still flow.
		logging.Error("Failed to register commands: %v", err)
	}

	logging.Info("All components started")
	return nil
}
