package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go-logrelay/internal/bot"
	"go-logrelay/internal/commands"
	"go-logrelay/internal/config"
	"go-logrelay/internal/forensics"
	"go-logrelay/internal/logging"
	"go-logrelay/internal/metrics"
	"go-logrelay/internal/notifier"
	"go-logrelay/internal/router"
	"go-logrelay/internal/state"
	"go-logrelay/internal/watchdog"
)

type Bootstrap struct {
	Config      *config.Config
	Components  *Components
	initialized bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Components struct {
	// Configuration and state
	Store    *config.ChannelStore
	Messages *state.RecentCache[state.MessageSnapshot]
	Roles    *state.RecentCache[state.RoleSnapshot]
	Channels *state.RecentCache[state.ChannelSnapshot]
	Invites  *state.InviteTracker

	// Pipeline
	Session  *bot.Session
	Resolver *forensics.Resolver
	Sender   *notifier.DiscordSender
	Router   *router.Router
	Commands *commands.Handler

	// Monitoring and observability
	Metrics  *metrics.Registry
	Exporter *metrics.Exporter
	Watchdog *watchdog.Watchdog
}

func New(cfg *config.Config) *Bootstrap {
	return &Bootstrap{Config: cfg}
}

// Initialize validates the config, starts logging and wires every
// component. Nothing touches the network yet.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	if b.Config == nil {
		return errors.New("bootstrap: no config")
	}
	if err := b.Config.Validate(); err != nil {
		return err
	}

	if err := b.initializeLogging(); err != nil {
		return fmt.Errorf("logging init failed: %w", err)
	}

	if err := b.wireComponents(ctx); err != nil {
		return fmt.Errorf("component wiring failed: %w", err)
	}

	b.initialized = true
	logging.Info("Bootstrap complete")
	return nil
}

func (b *Bootstrap) initializeLogging() error {
	lc := b.Config.Logger
	if err := ensureLogsDirectory(lc.Path); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return logging.InitGlobalLogger(logging.ParseLevel(lc.Level), lc.Path, lc.Format)
}

func ensureLogsDirectory(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (b *Bootstrap) wireComponents(ctx context.Context) error {
	c, err := Wire(ctx, b.Config)
	if err != nil {
		return err
	}
	b.Components = c
	return nil
}

// Start runs the background loops, connects the gateway and publishes
// commands. The loops stop on Shutdown.
func (b *Bootstrap) Start(ctx context.Context) error {
	if !b.initialized {
		return fmt.Errorf("bootstrap not initialized")
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	StartBackground(runCtx, &b.wg, b.Config, b.Components)

	if err := StartAll(b.Config, b.Components); err != nil {
		cancel()
		b.wg.Wait()
		return err
	}
	return nil
}

func (b *Bootstrap) Shutdown(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	if b.Components == nil {
		return nil
	}
	return Shutdown(ctx, b.Components)
}
