package bot

import (
	"context"

	"go-logrelay/internal/logging"
	"go-logrelay/internal/router"
	"go-logrelay/internal/state"

	"github.com/bwmarrin/discordgo"
)

// EventSink receives every translated gateway event.
type EventSink interface {
	Handle(ctx context.Context, ev router.Event) router.Outcome
	SetSelfID(id string)
}

// gateway holds the handlers registered on the session. Each method is a
// discordgo handler; discordgo runs them on their own goroutines.
type gateway struct {
	sink    EventSink
	invites *state.InviteTracker
}

// SetupEventHandlers routes gateway events into sink. invites may be nil.
func (s *Session) SetupEventHandlers(sink EventSink, invites *state.InviteTracker) {
	logging.Info("Setting up Discord event handlers...")

	g := &gateway{sink: sink, invites: invites}

	s.discord.AddHandler(g.onReady)
	s.discord.AddHandler(g.onGuildCreate)
	s.discord.AddHandler(g.onGuildDelete)

	s.discord.AddHandler(g.onMessageCreate)
	s.discord.AddHandler(g.onMessageUpdate)
	s.discord.AddHandler(g.onMessageDelete)

	s.discord.AddHandler(g.onVoiceStateUpdate)
	s.discord.AddHandler(g.onMemberAdd)
	s.discord.AddHandler(g.onMemberRemove)
	s.discord.AddHandler(g.onMemberUpdate)

	s.discord.AddHandler(g.onRoleCreate)
	s.discord.AddHandler(g.onRoleUpdate)
	s.discord.AddHandler(g.onRoleDelete)

	s.discord.AddHandler(g.onChannelCreate)
	s.discord.AddHandler(g.onChannelUpdate)
	s.discord.AddHandler(g.onChannelDelete)

	s.discord.AddHandler(g.onInviteCreate)
	s.discord.AddHandler(g.onInviteDelete)

	logging.Info("Discord event handlers configured successfully")
}

func (g *gateway) route(ev router.Event, ok bool) {
	if !ok {
		return
	}
	g.sink.Handle(context.Background(), ev)
}

// onReady fires on every (re)connect. Invite counts may have moved while
// the gateway was down, so every guild is refetched.
func (g *gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r == nil || r.User == nil {
		return
	}
	g.sink.SetSelfID(r.User.ID)
	logging.Info("Bot ready! Connected as %s in %d guilds", r.User.String(), len(r.Guilds))

	if g.invites == nil {
		return
	}
	ids := make([]string, 0, len(r.Guilds))
	for _, guild := range r.Guilds {
		if guild != nil && guild.ID != "" {
			ids = append(ids, guild.ID)
		}
	}
	n := g.invites.RefreshAll(context.Background(), ids)
	logging.Info("Tracking invites for %d/%d guilds", n, len(ids))
}

func (g *gateway) onGuildCreate(_ *discordgo.Session, e *discordgo.GuildCreate) {
	ev, ok := guildAvailableEvent(e)
	if ok {
		logging.Info("Guild available: %s (ID: %s)", e.Name, e.ID)
	}
	g.route(ev, ok)
}

func (g *gateway) onGuildDelete(_ *discordgo.Session, e *discordgo.GuildDelete) {
	ev, ok := guildRemovedEvent(e)
	if ok {
		logging.Info("Removed from guild %s", e.ID)
	}
	g.route(ev, ok)
}

func (g *gateway) onMessageCreate(_ *discordgo.Session, e *discordgo.MessageCreate) {
	g.route(messageCreateEvent(e))
}

func (g *gateway) onMessageUpdate(_ *discordgo.Session, e *discordgo.MessageUpdate) {
	g.route(messageUpdateEvent(e))
}

func (g *gateway) onMessageDelete(_ *discordgo.Session, e *discordgo.MessageDelete) {
	g.route(messageDeleteEvent(e))
}

func (g *gateway) onVoiceStateUpdate(_ *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	g.route(voiceStateEvent(e))
}

func (g *gateway) onMemberAdd(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
	g.route(memberAddEvent(e))
}

func (g *gateway) onMemberRemove(_ *discordgo.Session, e *discordgo.GuildMemberRemove) {
	g.route(memberRemoveEvent(e))
}

func (g *gateway) onMemberUpdate(_ *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	g.route(memberUpdateEvent(e))
}

func (g *gateway) onRoleCreate(_ *discordgo.Session, e *discordgo.GuildRoleCreate) {
	g.route(roleCreateEvent(e))
}

func (g *gateway) onRoleUpdate(_ *discordgo.Session, e *discordgo.GuildRoleUpdate) {
	g.route(roleUpdateEvent(e))
}

func (g *gateway) onRoleDelete(_ *discordgo.Session, e *discordgo.GuildRoleDelete) {
	g.route(roleDeleteEvent(e))
}

func (g *gateway) onChannelCreate(_ *discordgo.Session, e *discordgo.ChannelCreate) {
	if e == nil {
		return
	}
	g.route(channelEvent(router.KindChannelCreate, e.Channel))
}

func (g *gateway) onChannelUpdate(_ *discordgo.Session, e *discordgo.ChannelUpdate) {
	if e == nil {
		return
	}
	g.route(channelEvent(router.KindChannelUpdate, e.Channel))
}

func (g *gateway) onChannelDelete(_ *discordgo.Session, e *discordgo.ChannelDelete) {
	if e == nil {
		return
	}
	g.route(channelEvent(router.KindChannelDelete, e.Channel))
}

func (g *gateway) onInviteCreate(_ *discordgo.Session, e *discordgo.InviteCreate) {
	g.route(inviteCreateEvent(e))
}

func (g *gateway) onInviteDelete(_ *discordgo.Session, e *discordgo.InviteDelete) {
	g.route(inviteDeleteEvent(e))
}
