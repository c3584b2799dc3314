package bot

import (
	"errors"
	"fmt"
	"time"

	"go-logrelay/internal/logging"

	"github.com/bwmarrin/discordgo"
)

// messageStateLimit is how many messages per channel discordgo keeps in its
// own state. It backs the BeforeDelete/BeforeUpdate fields the relay falls
// back to when its cache has nothing.
const messageStateLimit = 50

var ErrNotConnected = errors.New("discord session is not connected")

type Session struct {
	discord *discordgo.Session
}

// New creates the Discord session without opening the gateway.
func New(token string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Message content, members and voice all need privileged intents.
	dg.Identify.Intents = discordgo.IntentsAll
	dg.State.TrackMembers = true
	dg.State.TrackVoice = true
	dg.State.TrackRoles = true
	dg.State.TrackChannels = true
	dg.State.MaxMessageCount = messageStateLimit

	return &Session{discord: dg}, nil
}

// Discord returns the underlying discordgo session
func (s *Session) Discord() *discordgo.Session {
	return s.discord
}

// Connect opens the Discord websocket connection
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	if u := s.discord.State.User; u != nil {
		logging.Info("Connected as %s (%s)", u.String(), u.ID)
	}
	return nil
}

// Close closes the Discord connection
func (s *Session) Close() error {
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}

// SelfID is the bot user id, empty before the gateway is ready.
func (s *Session) SelfID() string {
	if s.discord.State == nil || s.discord.State.User == nil {
		return ""
	}
	return s.discord.State.User.ID
}

// Healthy reports whether the gateway session is up.
func (s *Session) Healthy() error {
	if s.discord == nil || !s.discord.DataReady {
		return ErrNotConnected
	}
	return nil
}

// GuildCount is the number of guilds in the gateway state.
func (s *Session) GuildCount() int {
	if s.discord.State == nil {
		return 0
	}
	s.discord.State.RLock()
	defer s.discord.State.RUnlock()
	return len(s.discord.State.Guilds)
}

// RegisterCommands replaces the slash command set. An empty guildID
// registers globally.
func (s *Session) RegisterCommands(guildID string, commands []*discordgo.ApplicationCommand) error {
	appID := s.SelfID()
	if appID == "" {
		return ErrNotConnected
	}
	logging.Info("Registering %d slash commands...", len(commands))

	registered, err := s.discord.ApplicationCommandBulkOverwrite(appID, guildID, commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	for _, cmd := range registered {
		logging.Info("Registered command: /%s", cmd.Name)
	}
	return nil
}

// AddHandler adds an event handler to the Discord session
func (s *Session) AddHandler(handler interface{}) func() {
	return s.discord.AddHandler(handler)
}

// LastHeartbeatAck is when the gateway last acknowledged a heartbeat.
func (s *Session) LastHeartbeatAck() time.Time {
	s.discord.RLock()
	defer s.discord.RUnlock()
	return s.discord.LastHeartbeatAck
}
