package main

import (
	"bytes"
	"strings"
	"testing"

	"go-logrelay/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintChannelRows(t *testing.T) {
	var buf bytes.Buffer
	err := printChannelRows(&buf, []config.ChannelRow{
		{GuildID: "200", Category: config.CategoryVoice, ChannelID: "v"},
		{GuildID: "100", Category: config.CategoryMessages, ChannelID: "m"},
		{GuildID: "100", Category: config.CategoryInvites, ChannelID: "i"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"GUILD", "Messages", "Voice", "Roles", "Channels", "Members", "Invites"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"100", "m", "-", "-", "-", "-", "i"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"200", "-", "v", "-", "-", "-", "-"}, strings.Fields(lines[2]))
}

func TestPrintChannelRows_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printChannelRows(&buf, nil))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestChannelsSet_RejectsBadIDs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown category", []string{"175928847299117063", "audit"}, "unknown"},
		{"guild", []string{"my-guild", "voice"}, "not a guild id"},
		{"channel", []string{"175928847299117063", "voice", "#logs"}, "not a channel id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := channelsSetCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
