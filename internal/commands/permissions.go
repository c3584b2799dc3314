package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// checkPermissions checks if the user may change log settings.
// Returns true if:
// 1. User has Manage Server or Administrator, OR
// 2. User is the server owner
func checkPermissions(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	if i.Member == nil || i.Member.User == nil {
		return false, nil
	}
	if hasManageServer(i.Member.Permissions) {
		return true, nil
	}

	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		guild, err = s.Guild(i.GuildID)
		if err != nil {
			return false, fmt.Errorf("failed to get guild: %w", err)
		}
	}
	return i.Member.User.ID == guild.OwnerID, nil
}

func hasManageServer(perms int64) bool {
	return perms&(discordgo.PermissionManageServer|discordgo.PermissionAdministrator) != 0
}

// respondPermissionError sends a permission denied error response
func respondPermissionError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) error {
	embed := &discordgo.MessageEmbed{
		Title:       "Access Denied",
		Description: message,
		Color:       colorNeutral,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}
