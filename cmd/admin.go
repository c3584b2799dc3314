package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"go-logrelay/internal/config"
	"go-logrelay/internal/database"
	"go-logrelay/pkg/util"

	"github.com/spf13/cobra"
)

const adminTimeout = 30 * time.Second

var errNoDatabase = errors.New("database driver is \"none\"; nothing to administer")

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or widen the log channel schema",
		Long: `Create the log channel table if it is missing and add a column for
every log category the database does not know yet. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), adminTimeout)
			defer cancel()

			backend, cfg, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := backend.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func channelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Inspect or change log channels without connecting to Discord",
	}
	cmd.AddCommand(channelsListCmd())
	cmd.AddCommand(channelsSetCmd())
	return cmd
}

func channelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured log channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), adminTimeout)
			defer cancel()

			backend, _, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			rows, err := backend.LoadAll(ctx)
			if err != nil {
				return fmt.Errorf("load channels: %w", err)
			}
			return printChannelRows(cmd.OutOrStdout(), rows)
		},
	}
}

func channelsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <guild-id> <category> [channel-id]",
		Short: "Set a log channel; omit the channel to clear the category",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := config.ParseCategory(args[1])
			if err != nil {
				return err
			}
			if !util.IsSnowflake(args[0]) {
				return fmt.Errorf("%q is not a guild id", args[0])
			}
			channelID := ""
			if len(args) == 3 {
				channelID = args[2]
				if !util.IsSnowflake(channelID) {
					return fmt.Errorf("%q is not a channel id", channelID)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), adminTimeout)
			defer cancel()

			backend, _, err := openBackend(ctx)
			if err != nil {
				return err
			}
			store := config.NewChannelStore(backend)
			defer store.Close()

			if err := store.Set(ctx, args[0], category, channelID); err != nil {
				return err
			}
			if channelID == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s for guild %s\n", category, args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s for guild %s to %s\n", category, args[0], channelID)
			}
			return nil
		},
	}
}

func openBackend(ctx context.Context) (config.Backend, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	backend, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if backend == nil {
		return nil, nil, errNoDatabase
	}
	return backend, cfg, nil
}

// printChannelRows writes one line per guild with a column per category.
func printChannelRows(out io.Writer, rows []config.ChannelRow) error {
	byGuild := make(map[string]map[config.Category]string)
	for _, row := range rows {
		if byGuild[row.GuildID] == nil {
			byGuild[row.GuildID] = make(map[config.Category]string)
		}
		byGuild[row.GuildID][row.Category] = row.ChannelID
	}
	guilds := make([]string, 0, len(byGuild))
	for id := range byGuild {
		guilds = append(guilds, id)
	}
	sort.Strings(guilds)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "GUILD")
	for _, c := range config.AllCategories {
		fmt.Fprintf(w, "\t%s", c.Label())
	}
	fmt.Fprintln(w)

	for _, id := range guilds {
		fmt.Fprint(w, id)
		for _, c := range config.AllCategories {
			dest := byGuild[id][c]
			if dest == "" {
				dest = "-"
			}
			fmt.Fprintf(w, "\t%s", dest)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
