package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// handlePing shows gateway heartbeat and REST latency
func handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	startTime := time.Now()

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	apiStart := time.Now()
	_, err = s.Channel(i.ChannelID)
	apiLatency := time.Since(apiStart)
	if err != nil {
		apiLatency = -1
	}

	embed := pingEmbed(s.HeartbeatLatency(), apiLatency, time.Since(startTime))
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}

// pingEmbed renders the latencies. A negative API latency means the
// channel lookup failed.
func pingEmbed(ws, api, response time.Duration) *discordgo.MessageEmbed {
	worst := ws
	if api > worst {
		worst = api
	}

	var statusColor int
	switch {
	case api < 0:
		statusColor = colorBad
	case worst < 100*time.Millisecond:
		statusColor = colorOK
	case worst < 300*time.Millisecond:
		statusColor = colorWarn
	default:
		statusColor = colorBad
	}

	apiText := fmt.Sprintf("`%dms`", api.Milliseconds())
	if api < 0 {
		apiText = "`unreachable`"
	}

	return &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: statusColor,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "⚡ WebSocket",
				Value:  fmt.Sprintf("`%dms`", ws.Milliseconds()),
				Inline: true,
			},
			{
				Name:   "📡 API",
				Value:  apiText,
				Inline: true,
			},
			{
				Name:   "🔄 Response",
				Value:  fmt.Sprintf("`%dms`", response.Milliseconds()),
				Inline: true,
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
