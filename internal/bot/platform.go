package bot

import (
	"context"
	"fmt"

	"go-logrelay/internal/forensics"
	"go-logrelay/internal/state"

	"github.com/bwmarrin/discordgo"
)

// RESTClient is the slice of the discordgo REST surface the relay reads
// audit entries and invites through.
type RESTClient interface {
	GuildAuditLog(guildID, userID, beforeID string, actionType, limit int, options ...discordgo.RequestOption) (*discordgo.GuildAuditLog, error)
	GuildInvites(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Invite, error)
}

// Platform serves audit log and invite lookups from the Discord REST API.
type Platform struct {
	client RESTClient
}

func NewPlatform(client RESTClient) *Platform {
	return &Platform{client: client}
}

// LatestAuditEntries returns up to limit entries of one action type,
// newest first.
func (p *Platform) LatestAuditEntries(ctx context.Context, guildID string, action forensics.AuditAction, limit int) ([]forensics.AuditEntry, error) {
	log, err := p.client.GuildAuditLog(guildID, "", "", int(action), limit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch audit log %s: %w", action, err)
	}
	if log == nil {
		return nil, nil
	}
	return auditEntries(log), nil
}

func auditEntries(log *discordgo.GuildAuditLog) []forensics.AuditEntry {
	out := make([]forensics.AuditEntry, 0, len(log.AuditLogEntries))
	for _, e := range log.AuditLogEntries {
		if e == nil {
			continue
		}
		entry := forensics.AuditEntry{
			ID:       e.ID,
			ActorID:  e.UserID,
			TargetID: e.TargetID,
			Reason:   e.Reason,
		}
		if e.ActionType != nil {
			entry.Action = forensics.AuditAction(*e.ActionType)
		}
		// Entry ids are snowflakes, so the id carries the creation time.
		if at, err := discordgo.SnowflakeTimestamp(e.ID); err == nil {
			entry.At = at
		}
		out = append(out, entry)
	}
	return out
}

// GuildInvites returns the current use count of every invite in the guild.
func (p *Platform) GuildInvites(ctx context.Context, guildID string) (state.InviteSnapshot, error) {
	invites, err := p.client.GuildInvites(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch invites: %w", err)
	}
	return inviteSnapshot(invites), nil
}

func inviteSnapshot(invites []*discordgo.Invite) state.InviteSnapshot {
	snap := make(state.InviteSnapshot, 0, len(invites))
	for _, inv := range invites {
		if inv == nil || inv.Code == "" {
			continue
		}
		use := state.InviteUse{Code: inv.Code, Uses: inv.Uses}
		if inv.Inviter != nil {
			use.InviterID = inv.Inviter.ID
		}
		if inv.Channel != nil {
			use.ChannelID = inv.Channel.ID
		}
		snap = append(snap, use)
	}
	return snap
}
