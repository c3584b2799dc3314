package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-logrelay/internal/config"
	"go-logrelay/internal/logging"

	"github.com/bwmarrin/discordgo"
)

const logsWriteTimeout = 10 * time.Second

type logsRequest struct {
	Sub       string
	Category  string
	ChannelID string
}

// parseLogsOptions reads the subcommand and its options. Options are
// matched by name, not position.
func parseLogsOptions(data discordgo.ApplicationCommandInteractionData) (logsRequest, error) {
	if len(data.Options) == 0 || data.Options[0] == nil {
		return logsRequest{}, errors.New("missing subcommand")
	}
	sub := data.Options[0]
	req := logsRequest{Sub: sub.Name}
	for _, opt := range sub.Options {
		if opt == nil {
			continue
		}
		switch {
		case opt.Name == "category" && opt.Type == discordgo.ApplicationCommandOptionString:
			req.Category = opt.StringValue()
		case opt.Name == "channel" && opt.Type == discordgo.ApplicationCommandOptionChannel:
			req.ChannelID = opt.ChannelValue(nil).ID
		}
	}
	return req, nil
}

// handleLogs handles /logs set, /logs clear and /logs view
func (h *Handler) handleLogs(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := checkPermissions(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		return respondPermissionError(s, i, "You need the Manage Server permission to configure logs.")
	}

	req, err := parseLogsOptions(i.ApplicationCommandData())
	if err != nil {
		return err
	}

	if req.Sub == "view" {
		return respondEmbed(s, i, logsViewEmbed(h.deps.Store.Snapshot(i.GuildID)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), logsWriteTimeout)
	defer cancel()

	embed, err := h.applyLogs(ctx, i.GuildID, req)
	if err != nil {
		return err
	}

	if req.Sub == "set" {
		if err := sendWelcome(s, req); err != nil {
			logging.Warn("Failed to post in new log channel %s: %v", req.ChannelID, err)
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "⚠️ Channel",
				Value: "Could not post in the channel. Check the bot's permissions there.",
			})
		}
	}
	return respondEmbed(s, i, embed)
}

// applyLogs writes a set or clear to the store and builds the reply. A
// write that only reached memory is reported in the reply, not as an error.
func (h *Handler) applyLogs(ctx context.Context, guildID string, req logsRequest) (*discordgo.MessageEmbed, error) {
	category, err := config.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}

	channelID := ""
	switch req.Sub {
	case "set":
		if req.ChannelID == "" {
			return nil, errors.New("missing channel")
		}
		channelID = req.ChannelID
	case "clear":
	default:
		return nil, fmt.Errorf("unknown subcommand: %s", req.Sub)
	}

	err = h.deps.Store.Set(ctx, guildID, category, channelID)
	if err != nil && !errors.Is(err, config.ErrNotPersisted) {
		return nil, err
	}
	persisted := err == nil && h.deps.Store.Persistent()
	h.deps.Metrics.ObserveConfigWrite(persisted)

	embed := &discordgo.MessageEmbed{Color: colorOK}
	if channelID == "" {
		embed.Title = "🧹 Log Channel Cleared"
		embed.Description = fmt.Sprintf("%s events are no longer logged.", category.Label())
	} else {
		embed.Title = "✅ Log Channel Configured"
		embed.Description = fmt.Sprintf("%s events will be sent to <#%s>", category.Label(), channelID)
	}

	if !persisted {
		logging.Warn("Log channel for guild %s (%s) kept in memory only: %v", guildID, category, err)
		embed.Color = colorWarn
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⚠️ Storage",
			Value: "Saved for this session only. The setting will be lost on restart.",
		})
	}
	return embed, nil
}

func logsViewEmbed(gc config.GuildChannels) *discordgo.MessageEmbed {
	var lines []string
	for _, c := range config.AllCategories {
		value := "Not configured"
		if dest, ok := gc.Channels[c]; ok && dest != "" {
			value = "<#" + dest + ">"
		}
		lines = append(lines, fmt.Sprintf("**%s**: %s", c.Label(), value))
	}
	return &discordgo.MessageEmbed{
		Title:       "📋 Log Channels",
		Description: strings.Join(lines, "\n"),
		Color:       colorNeutral,
	}
}

func sendWelcome(s *discordgo.Session, req logsRequest) error {
	category, err := config.ParseCategory(req.Category)
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSendEmbed(req.ChannelID, &discordgo.MessageEmbed{
		Title:       "✅ Logging Enabled",
		Description: fmt.Sprintf("This channel will now receive %s logs.", strings.ToLower(category.Label())),
		Color:       colorOK,
	})
	return err
}
