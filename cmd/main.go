// logrelay relays Discord server activity into per-category log channels.
//
// Usage:
//
//	logrelay                 # same as "logrelay run"
//	logrelay run -c config.yaml
//	logrelay migrate
//	logrelay channels list
//	logrelay channels set <guild-id> <category> <channel-id>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-logrelay/internal/bootstrap"
	"go-logrelay/internal/config"
	"go-logrelay/internal/logging"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	version    = "dev"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "logrelay",
		Short: "Relay Discord server events into log channels",
		Long: `logrelay watches the guilds it is in and posts message, voice, role,
channel, member and invite activity to the channels configured with
/logs set.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRelay,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./config.yaml or ./configs/config.yaml)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(channelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and relay events (default)",
		RunE:  runRelay,
	}
}

func runRelay(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Checked here so a missing token fails before anything connects.
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bootstrap.New(cfg)
	if err := b.Initialize(ctx); err != nil {
		return err
	}
	defer logging.Close()

	if err := b.Start(ctx); err != nil {
		shutdown(b)
		return err
	}

	logging.Info("Relay running. Press Ctrl+C to exit.")
	<-ctx.Done()
	logging.Info("Shutdown signal received")

	return shutdown(b)
}

func shutdown(b *bootstrap.Bootstrap) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.Shutdown(ctx); err != nil {
		logging.Error("Shutdown: %v", err)
		return err
	}
	return nil
}
