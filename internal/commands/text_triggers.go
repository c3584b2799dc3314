package commands

import (
	"go-logrelay/internal/logging"

	"github.com/bwmarrin/discordgo"
)

const helpText = "Commandes disponibles:\n- !ping\n- !bonjour\n- !aide"

// triggerReply returns the reply for an exact-match text trigger.
func triggerReply(content, username string) (string, bool) {
	switch content {
	case "!ping":
		return "Pong! 🏓", true
	case "!bonjour":
		return "Bonjour " + username + "! 👋", true
	case "!aide":
		return helpText, true
	}
	return "", false
}

// handleTextTrigger answers the legacy prefix commands. Bot authors,
// including the relay itself, are ignored.
func handleTextTrigger(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}
	reply, ok := triggerReply(m.Content, m.Author.Username)
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSendReply(m.ChannelID, reply, m.Reference()); err != nil {
		logging.Debug("Failed to answer %q in channel %s: %v", m.Content, m.ChannelID, err)
	}
}
