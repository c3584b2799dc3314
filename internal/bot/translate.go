package bot

import (
	"strconv"
	"time"

	"go-logrelay/internal/router"
	"go-logrelay/internal/state"

	"github.com/bwmarrin/discordgo"
)

// The functions below reduce discordgo payloads to router events. They
// never touch the network.

func toUser(u *discordgo.User) router.User {
	if u == nil {
		return router.User{}
	}
	out := router.User{
		ID:        u.ID,
		Tag:       u.String(),
		AvatarURL: u.AvatarURL("128"),
		Bot:       u.Bot,
	}
	if created, err := discordgo.SnowflakeTimestamp(u.ID); err == nil {
		out.CreatedAt = created
	}
	return out
}

func toMember(m *discordgo.Member) *router.Member {
	if m == nil {
		return nil
	}
	return &router.Member{
		User:     toUser(m.User),
		Nick:     m.Nick,
		RoleIDs:  append([]string(nil), m.Roles...),
		JoinedAt: m.JoinedAt,
	}
}

func toMessage(m *discordgo.Message) *state.MessageSnapshot {
	if m == nil {
		return nil
	}
	snap := &state.MessageSnapshot{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
		Edited:    m.EditedTimestamp != nil,
	}
	if m.Author != nil {
		snap.AuthorID = m.Author.ID
		snap.AuthorTag = m.Author.String()
		snap.AuthorAvatarURL = m.Author.AvatarURL("128")
		snap.AuthorBot = m.Author.Bot
	}
	for _, a := range m.Attachments {
		if a != nil && a.URL != "" {
			snap.Attachments = append(snap.Attachments, a.URL)
		}
	}
	return snap
}

func toRole(guildID string, r *discordgo.Role) *state.RoleSnapshot {
	if r == nil {
		return nil
	}
	return &state.RoleSnapshot{
		ID:          r.ID,
		GuildID:     guildID,
		Name:        r.Name,
		Color:       r.Color,
		Permissions: r.Permissions,
		Hoist:       r.Hoist,
		Mentionable: r.Mentionable,
		Managed:     r.Managed,
	}
}

func toChannel(c *discordgo.Channel) *state.ChannelSnapshot {
	if c == nil {
		return nil
	}
	return &state.ChannelSnapshot{
		ID:       c.ID,
		GuildID:  c.GuildID,
		Name:     c.Name,
		Type:     channelTypeName(c.Type),
		Topic:    c.Topic,
		NSFW:     c.NSFW,
		ParentID: c.ParentID,
		Position: c.Position,
	}
}

var channelTypeNames = map[discordgo.ChannelType]string{
	discordgo.ChannelTypeGuildText:          "Text",
	discordgo.ChannelTypeGuildVoice:         "Voice",
	discordgo.ChannelTypeGuildCategory:      "Category",
	discordgo.ChannelTypeGuildNews:          "Announcement",
	discordgo.ChannelTypeGuildStore:         "Store",
	discordgo.ChannelTypeGuildNewsThread:    "Announcement thread",
	discordgo.ChannelTypeGuildPublicThread:  "Public thread",
	discordgo.ChannelTypeGuildPrivateThread: "Private thread",
	discordgo.ChannelTypeGuildStageVoice:    "Stage",
	discordgo.ChannelTypeGuildDirectory:     "Directory",
	discordgo.ChannelTypeGuildForum:         "Forum",
	discordgo.ChannelTypeGuildMedia:         "Media",
}

// channelTypeName falls back to the numeric type for kinds added after
// this list.
func channelTypeName(t discordgo.ChannelType) string {
	if name, ok := channelTypeNames[t]; ok {
		return name
	}
	return "Type " + strconv.Itoa(int(t))
}

func messageCreateEvent(m *discordgo.MessageCreate) (router.Event, bool) {
	if m == nil || m.Message == nil || m.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:    router.KindMessageCreate,
		GuildID: m.GuildID,
		Message: toMessage(m.Message),
	}, true
}

func messageUpdateEvent(m *discordgo.MessageUpdate) (router.Event, bool) {
	if m == nil || m.Message == nil || m.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:          router.KindMessageUpdate,
		GuildID:       m.GuildID,
		Message:       toMessage(m.Message),
		BeforeMessage: toMessage(m.BeforeUpdate),
	}, true
}

// messageDeleteEvent prefers the discordgo state copy of the message; the
// gateway payload itself carries only ids.
func messageDeleteEvent(m *discordgo.MessageDelete) (router.Event, bool) {
	if m == nil || m.Message == nil || m.GuildID == "" {
		return router.Event{}, false
	}
	live := toMessage(m.Message)
	if before := toMessage(m.BeforeDelete); before != nil && before.AuthorID != "" {
		live = before
	}
	live.ID = m.ID
	return router.Event{
		Kind:    router.KindMessageDelete,
		GuildID: m.GuildID,
		Message: live,
	}, true
}

func voiceStateEvent(v *discordgo.VoiceStateUpdate) (router.Event, bool) {
	if v == nil || v.VoiceState == nil || v.GuildID == "" {
		return router.Event{}, false
	}
	change := &router.VoiceChange{AfterChannelID: v.ChannelID}
	if v.Member != nil && v.Member.User != nil {
		change.User = toUser(v.Member.User)
	} else {
		change.User = router.User{ID: v.UserID}
	}
	if v.BeforeUpdate != nil {
		change.BeforeChannelID = v.BeforeUpdate.ChannelID
	}
	return router.Event{
		Kind:    router.KindVoiceState,
		GuildID: v.GuildID,
		Voice:   change,
	}, true
}

func memberAddEvent(m *discordgo.GuildMemberAdd) (router.Event, bool) {
	if m == nil || m.Member == nil || m.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:    router.KindMemberJoin,
		GuildID: m.GuildID,
		Member:  toMember(m.Member),
	}, true
}

func memberRemoveEvent(m *discordgo.GuildMemberRemove) (router.Event, bool) {
	if m == nil || m.Member == nil || m.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:    router.KindMemberLeave,
		GuildID: m.GuildID,
		Member:  toMember(m.Member),
	}, true
}

func memberUpdateEvent(m *discordgo.GuildMemberUpdate) (router.Event, bool) {
	if m == nil || m.Member == nil || m.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:         router.KindMemberUpdate,
		GuildID:      m.GuildID,
		Member:       toMember(m.Member),
		BeforeMember: toMember(m.BeforeUpdate),
	}, true
}

func roleCreateEvent(r *discordgo.GuildRoleCreate) (router.Event, bool) {
	if r == nil || r.GuildRole == nil || r.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:    router.KindRoleCreate,
		GuildID: r.GuildID,
		Role:    toRole(r.GuildID, r.Role),
	}, true
}

func roleUpdateEvent(r *discordgo.GuildRoleUpdate) (router.Event, bool) {
	if r == nil || r.GuildRole == nil || r.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:    router.KindRoleUpdate,
		GuildID: r.GuildID,
		Role:    toRole(r.GuildID, r.Role),
	}, true
}

func roleDeleteEvent(r *discordgo.GuildRoleDelete) (router.Event, bool) {
	if r == nil || r.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:    router.KindRoleDelete,
		GuildID: r.GuildID,
		RoleID:  r.RoleID,
	}, true
}

func channelEvent(kind router.Kind, c *discordgo.Channel) (router.Event, bool) {
	if c == nil || c.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:    kind,
		GuildID: c.GuildID,
		Channel: toChannel(c),
	}, true
}

func inviteCreateEvent(i *discordgo.InviteCreate) (router.Event, bool) {
	if i == nil || i.Invite == nil || i.GuildID == "" {
		return router.Event{}, false
	}
	inv := &router.Invite{
		Code:      i.Code,
		ChannelID: i.ChannelID,
		MaxUses:   i.MaxUses,
		MaxAge:    time.Duration(i.MaxAge) * time.Second,
		Temporary: i.Temporary,
	}
	if i.Inviter != nil {
		inv.InviterID = i.Inviter.ID
	}
	return router.Event{
		Kind:    router.KindInviteCreate,
		GuildID: i.GuildID,
		Invite:  inv,
	}, true
}

func inviteDeleteEvent(i *discordgo.InviteDelete) (router.Event, bool) {
	if i == nil || i.GuildID == "" {
		return router.Event{}, false
	}
	return router.Event{
		Kind:    router.KindInviteDelete,
		GuildID: i.GuildID,
		Invite:  &router.Invite{Code: i.Code, ChannelID: i.ChannelID},
	}, true
}

// guildAvailableEvent carries the roles and channels that seed the
// structural snapshots.
func guildAvailableEvent(g *discordgo.GuildCreate) (router.Event, bool) {
	if g == nil || g.Guild == nil || g.ID == "" || g.Unavailable {
		return router.Event{}, false
	}
	ev := router.Event{Kind: router.KindGuildAvailable, GuildID: g.ID}
	for _, r := range g.Roles {
		if snap := toRole(g.ID, r); snap != nil {
			ev.Roles = append(ev.Roles, *snap)
		}
	}
	for _, c := range g.Channels {
		if snap := toChannel(c); snap != nil {
			snap.GuildID = g.ID
			ev.Channels = append(ev.Channels, *snap)
		}
	}
	return ev, true
}

// guildRemovedEvent ignores outages; an unavailable guild comes back with
// its state intact.
func guildRemovedEvent(g *discordgo.GuildDelete) (router.Event, bool) {
	if g == nil || g.Guild == nil || g.ID == "" || g.Unavailable {
		return router.Event{}, false
	}
	return router.Event{Kind: router.KindGuildRemoved, GuildID: g.ID}, true
}
