package commands

import (
	"fmt"
	"time"

	"go-logrelay/internal/bot"
	"go-logrelay/internal/config"
	"go-logrelay/internal/logging"
	"go-logrelay/internal/metrics"

	"github.com/bwmarrin/discordgo"
)

// RuntimeStats are the relay counters shown by /status.
type RuntimeStats struct {
	CachedMessages int
	InviteGuilds   int
	Guilds         int
}

type Deps struct {
	Store   *config.ChannelStore
	Metrics *metrics.Registry
	// Stats is polled on each /status call. May be nil.
	Stats func() RuntimeStats
}

// Handler manages all command interactions
type Handler struct {
	deps      Deps
	startedAt time.Time
}

func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, startedAt: time.Now()}
}

// Register adds the interaction and text trigger handlers and publishes
// the slash commands. The session must be connected.
func (h *Handler) Register(session *bot.Session, guildID string) error {
	session.AddHandler(h.handleInteraction)
	session.AddHandler(handleTextTrigger)

	commands := GetAllCommands()
	if err := session.RegisterCommands(guildID, commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	logging.Info("Command handler initialized with %d commands", len(commands))
	return nil
}

// handleInteraction routes all interactions (commands, buttons, dropdowns)
func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	h.handleCommand(s, i)
}

// handleCommand routes slash commands to their handlers
func (h *Handler) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	var err error
	switch data.Name {
	case "logs":
		err = h.handleLogs(s, i)
	case "status":
		err = h.handleStatus(s, i)
	case "ping":
		err = handlePing(s, i)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		logging.Error("Command error [%s]: %v", data.Name, err)
		respondError(s, i, err.Error())
	}
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ Error: %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logging.Debug("Failed to send error response: %v", err)
	}
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}
