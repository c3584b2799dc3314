package router

import (
	"time"

	"go-logrelay/internal/state"
)

// Kind names a gateway event the router understands.
type Kind string

const (
	KindMessageCreate  Kind = "message_create"
	KindMessageDelete  Kind = "message_delete"
	KindMessageUpdate  Kind = "message_update"
	KindVoiceState     Kind = "voice_state"
	KindMemberJoin     Kind = "member_join"
	KindMemberLeave    Kind = "member_leave"
	KindMemberUpdate   Kind = "member_update"
	KindRoleCreate     Kind = "role_create"
	KindRoleDelete     Kind = "role_delete"
	KindRoleUpdate     Kind = "role_update"
	KindChannelCreate  Kind = "channel_create"
	KindChannelDelete  Kind = "channel_delete"
	KindChannelUpdate  Kind = "channel_update"
	KindInviteCreate   Kind = "invite_create"
	KindInviteDelete   Kind = "invite_delete"
	KindGuildAvailable Kind = "guild_available"
	KindGuildRemoved   Kind = "guild_removed"
)

type User struct {
	ID        string
	Tag       string
	AvatarURL string
	Bot       bool
	CreatedAt time.Time
}

type Member struct {
	User     User
	Nick     string
	RoleIDs  []string
	JoinedAt time.Time
}

// VoiceChange is a voice state transition. An empty channel id means "not
// in voice".
type VoiceChange struct {
	User            User
	BeforeChannelID string
	AfterChannelID  string
}

type Invite struct {
	Code      string
	ChannelID string
	InviterID string
	MaxUses   int
	MaxAge    time.Duration
	Temporary bool
}

// Event is a gateway event reduced to the fields the router reads. Only
// the fields of its Kind are set.
type Event struct {
	Kind       Kind
	GuildID    string
	ReceivedAt time.Time

	// Message is the live payload. On delete it may carry only ids.
	Message       *state.MessageSnapshot
	BeforeMessage *state.MessageSnapshot

	Voice *VoiceChange

	Member       *Member
	BeforeMember *Member

	Role *state.RoleSnapshot
	// RoleID identifies the role on delete when the payload carries nothing else.
	RoleID string

	Channel *state.ChannelSnapshot

	Invite *Invite

	// Roles and Channels seed the structural snapshots on guild available.
	Roles    []state.RoleSnapshot
	Channels []state.ChannelSnapshot
}
