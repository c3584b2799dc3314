package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleSnapshotSameAs(t *testing.T) {
	base := RoleSnapshot{ID: "r", Name: "Mods", Color: 0xff0000, Permissions: 8}

	assert.True(t, base.SameAs(base))

	moved := base
	moved.Managed = true
	assert.True(t, moved.SameAs(base), "managed flag is not a visible change")

	renamed := base
	renamed.Name = "Moderators"
	assert.False(t, renamed.SameAs(base))

	perms := base
	perms.Permissions = 0
	assert.False(t, perms.SameAs(base))
}

func TestChannelSnapshotSameAs(t *testing.T) {
	base := ChannelSnapshot{ID: "c", Name: "general", Topic: "hi", ParentID: "cat"}

	moved := base
	moved.Position = 4
	assert.True(t, moved.SameAs(base))

	nsfw := base
	nsfw.NSFW = true
	assert.False(t, nsfw.SameAs(base))

	reparented := base
	reparented.ParentID = "other"
	assert.False(t, reparented.SameAs(base))
}
