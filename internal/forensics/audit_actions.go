package forensics

import "strconv"

// AuditAction is an audit log action type. Values match the platform's
// numbering so the gateway adapter can pass them straight through.
type AuditAction int

const (
	ActionChannelCreate    AuditAction = 10
	ActionChannelUpdate    AuditAction = 11
	ActionChannelDelete    AuditAction = 12
	ActionMemberKick       AuditAction = 20
	ActionMemberUpdate     AuditAction = 24
	ActionMemberRoleUpdate AuditAction = 25
	ActionMemberMove       AuditAction = 26
	ActionMemberDisconnect AuditAction = 27
	ActionRoleCreate       AuditAction = 30
	ActionRoleUpdate       AuditAction = 31
	ActionRoleDelete       AuditAction = 32
	ActionInviteCreate     AuditAction = 40
	ActionInviteDelete     AuditAction = 42
	ActionMessageDelete    AuditAction = 72
)

var actionNames = map[AuditAction]string{
	ActionChannelCreate:    "channel_create",
	ActionChannelUpdate:    "channel_update",
	ActionChannelDelete:    "channel_delete",
	ActionMemberKick:       "member_kick",
	ActionMemberUpdate:     "member_update",
	ActionMemberRoleUpdate: "member_role_update",
	ActionMemberMove:       "member_move",
	ActionMemberDisconnect: "member_disconnect",
	ActionRoleCreate:       "role_create",
	ActionRoleUpdate:       "role_update",
	ActionRoleDelete:       "role_delete",
	ActionInviteCreate:     "invite_create",
	ActionInviteDelete:     "invite_delete",
	ActionMessageDelete:    "message_delete",
}

func (a AuditAction) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "action_" + strconv.Itoa(int(a))
}
