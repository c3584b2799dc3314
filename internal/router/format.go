package router

import (
	"fmt"
	"strings"
	"time"

	"go-logrelay/internal/forensics"
	"go-logrelay/internal/notifier"
	"go-logrelay/internal/state"
	"go-logrelay/pkg/util"
)

func mention(userID string) string {
	if userID == "" {
		return "unknown"
	}
	return fmt.Sprintf("<@%s> (`%s`)", userID, userID)
}

func channelMention(channelID string) string {
	if channelID == "" {
		return "unknown"
	}
	return fmt.Sprintf("<#%s>", channelID)
}

func roleMention(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

func quote(content string) string {
	if content == "" {
		return "*(no text)*"
	}
	return util.Truncate(content, 1000)
}

func byActor(n *notifier.Notification, label string, attr forensics.Attribution, ok bool) {
	if !ok {
		return
	}
	n.AddField(label, mention(attr.ActorID), true)
	if attr.Reason != "" {
		n.AddField("Reason", attr.Reason, false)
	}
}

func formatMessageDelete(m state.MessageSnapshot, cached bool, attr forensics.Attribution, attributed bool) notifier.Notification {
	n := notifier.Notification{
		Title:         "Message deleted",
		Color:         notifier.ColorRed,
		AuthorName:    m.AuthorTag,
		AuthorIconURL: m.AuthorAvatarURL,
		Footer:        "Message ID: " + m.ID,
	}
	n.AddField("Author", mention(m.AuthorID), true)
	n.AddField("Channel", channelMention(m.ChannelID), true)
	byActor(&n, "Deleted by", attr, attributed)

	switch {
	case cached || m.Content != "":
		n.AddField("Content", quote(m.Content), false)
	default:
		n.AddField("Content", "*(not cached)*", false)
	}
	if len(m.Attachments) > 0 {
		n.AddField("Attachments", strings.Join(m.Attachments, "\n"), false)
		n.ImageURL = firstImage(m.Attachments)
	}
	n.AddField("Sent", relativeTime(m.CreatedAt), true)
	return n
}

func formatMessageEdit(before, after state.MessageSnapshot) notifier.Notification {
	n := notifier.Notification{
		Title:         "Message edited",
		Color:         notifier.ColorYellow,
		AuthorName:    after.AuthorTag,
		AuthorIconURL: after.AuthorAvatarURL,
		Footer:        "Message ID: " + after.ID,
	}
	n.AddField("Author", mention(after.AuthorID), true)
	n.AddField("Channel", channelMention(after.ChannelID), true)
	n.AddField("Before", quote(before.Content), false)
	n.AddField("After", quote(after.Content), false)
	return n
}

func firstImage(urls []string) string {
	for _, u := range urls {
		lower := strings.ToLower(u)
		if i := strings.IndexByte(lower, '?'); i >= 0 {
			lower = lower[:i]
		}
		for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp"} {
			if strings.HasSuffix(lower, ext) {
				return u
			}
		}
	}
	return ""
}

func formatVoice(v VoiceChange) notifier.Notification {
	n := notifier.Notification{
		AuthorName:    v.User.Tag,
		AuthorIconURL: v.User.AvatarURL,
		Footer:        "User ID: " + v.User.ID,
	}
	n.AddField("Member", mention(v.User.ID), true)

	switch {
	case v.BeforeChannelID == "":
		n.Title = "Joined voice channel"
		n.Color = notifier.ColorGreen
		n.AddField("Channel", channelMention(v.AfterChannelID), true)
	case v.AfterChannelID == "":
		n.Title = "Left voice channel"
		n.Color = notifier.ColorRed
		n.AddField("Channel", channelMention(v.BeforeChannelID), true)
	default:
		n.Title = "Moved voice channel"
		n.Color = notifier.ColorBlue
		n.AddField("From", channelMention(v.BeforeChannelID), true)
		n.AddField("To", channelMention(v.AfterChannelID), true)
	}
	return n
}

func formatMemberJoin(m Member, inv state.InviteUse, hasInvite bool, now time.Time) notifier.Notification {
	n := notifier.Notification{
		Title:         "Member joined",
		Color:         notifier.ColorGreen,
		AuthorName:    m.User.Tag,
		AuthorIconURL: m.User.AvatarURL,
		ThumbnailURL:  m.User.AvatarURL,
		Footer:        "User ID: " + m.User.ID,
	}
	n.AddField("Member", mention(m.User.ID), true)
	if !m.User.CreatedAt.IsZero() {
		n.AddField("Account created", relativeTime(m.User.CreatedAt), true)
		if now.Sub(m.User.CreatedAt) < 7*24*time.Hour {
			n.AddField("Warning", "New account (less than 7 days old)", false)
		}
	}
	if hasInvite {
		n.AddField("Invite", fmt.Sprintf("`%s` (%d uses)", inv.Code, inv.Uses), true)
		if inv.InviterID != "" {
			n.AddField("Invited by", mention(inv.InviterID), true)
		}
	}
	if m.User.Bot {
		n.AddField("Bot", "yes", true)
	}
	return n
}

func formatMemberLeave(m Member, attr forensics.Attribution, kicked bool) notifier.Notification {
	n := notifier.Notification{
		Title:         "Member left",
		Color:         notifier.ColorGrey,
		AuthorName:    m.User.Tag,
		AuthorIconURL: m.User.AvatarURL,
		ThumbnailURL:  m.User.AvatarURL,
		Footer:        "User ID: " + m.User.ID,
	}
	if kicked {
		n.Title = "Member kicked"
		n.Color = notifier.ColorRed
	}
	n.AddField("Member", mention(m.User.ID), true)
	n.AddField("Joined", relativeTime(m.JoinedAt), true)
	byActor(&n, "Kicked by", attr, kicked)
	if len(m.RoleIDs) > 0 {
		roles := make([]string, 0, len(m.RoleIDs))
		for _, id := range m.RoleIDs {
			roles = append(roles, roleMention(id))
		}
		n.AddField("Roles", strings.Join(roles, " "), false)
	}
	return n
}

func formatMemberRoles(m Member, added, removed []string, attr forensics.Attribution, attributed bool) notifier.Notification {
	n := notifier.Notification{
		Title:         "Member roles updated",
		Color:         notifier.ColorBlue,
		AuthorName:    m.User.Tag,
		AuthorIconURL: m.User.AvatarURL,
		Footer:        "User ID: " + m.User.ID,
	}
	n.AddField("Member", mention(m.User.ID), true)
	byActor(&n, "Updated by", attr, attributed)
	n.AddField("Added", roleList(added), false)
	n.AddField("Removed", roleList(removed), false)
	return n
}

func roleList(ids []string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, roleMention(id))
	}
	return strings.Join(out, " ")
}

func formatNickname(before, after Member, attr forensics.Attribution, attributed bool) notifier.Notification {
	n := notifier.Notification{
		Title:         "Nickname changed",
		Color:         notifier.ColorBlue,
		AuthorName:    after.User.Tag,
		AuthorIconURL: after.User.AvatarURL,
		Footer:        "User ID: " + after.User.ID,
	}
	n.AddField("Member", mention(after.User.ID), true)
	byActor(&n, "Changed by", attr, attributed)
	n.AddField("Before", orNone(before.Nick), true)
	n.AddField("After", orNone(after.Nick), true)
	return n
}

func orNone(s string) string {
	if s == "" {
		return "*(none)*"
	}
	return s
}

func formatRoleCreate(r state.RoleSnapshot, attr forensics.Attribution, attributed bool) notifier.Notification {
	n := notifier.Notification{
		Title:  "Role created",
		Color:  notifier.ColorGreen,
		Footer: "Role ID: " + r.ID,
	}
	n.AddField("Role", roleMention(r.ID), true)
	n.AddField("Name", r.Name, true)
	byActor(&n, "Created by", attr, attributed)
	return n
}

func formatRoleDelete(r state.RoleSnapshot, attr forensics.Attribution, attributed bool) notifier.Notification {
	n := notifier.Notification{
		Title:  "Role deleted",
		Color:  notifier.ColorRed,
		Footer: "Role ID: " + r.ID,
	}
	n.AddField("Name", orNone(r.Name), true)
	if r.Color != 0 {
		n.AddField("Color", fmt.Sprintf("#%06X", r.Color), true)
	}
	byActor(&n, "Deleted by", attr, attributed)
	return n
}

func formatRoleUpdate(before, after state.RoleSnapshot, attr forensics.Attribution, attributed bool) notifier.Notification {
	n := notifier.Notification{
		Title:  "Role updated",
		Color:  notifier.ColorYellow,
		Footer: "Role ID: " + after.ID,
	}
	n.AddField("Role", roleMention(after.ID), true)
	byActor(&n, "Updated by", attr, attributed)

	if before.Name != after.Name {
		n.AddField("Name", fmt.Sprintf("%s → %s", before.Name, after.Name), false)
	}
	if before.Color != after.Color {
		n.AddField("Color", fmt.Sprintf("#%06X → #%06X", before.Color, after.Color), false)
	}
	if before.Hoist != after.Hoist {
		n.AddField("Displayed separately", fmt.Sprintf("%t → %t", before.Hoist, after.Hoist), true)
	}
	if before.Mentionable != after.Mentionable {
		n.AddField("Mentionable", fmt.Sprintf("%t → %t", before.Mentionable, after.Mentionable), true)
	}
	granted, revoked := permissionDelta(before.Permissions, after.Permissions)
	n.AddField("Permissions granted", strings.Join(granted, ", "), false)
	n.AddField("Permissions revoked", strings.Join(revoked, ", "), false)
	return n
}

func formatChannelCreate(c state.ChannelSnapshot, attr forensics.Attribution, attributed bool) notifier.Notification {
	n := notifier.Notification{
		Title:  "Channel created",
		Color:  notifier.ColorGreen,
		Footer: "Channel ID: " + c.ID,
	}
	n.AddField("Channel", channelMention(c.ID), true)
	n.AddField("Name", c.Name, true)
	n.AddField("Type", c.Type, true)
	if c.ParentID != "" {
		n.AddField("Category", channelMention(c.ParentID), true)
	}
	byActor(&n, "Created by", attr, attributed)
	return n
}

func formatChannelDelete(c state.ChannelSnapshot, attr forensics.Attribution, attributed bool) notifier.Notification {
	n := notifier.Notification{
		Title:  "Channel deleted",
		Color:  notifier.ColorRed,
		Footer: "Channel ID: " + c.ID,
	}
	n.AddField("Name", orNone(c.Name), true)
	n.AddField("Type", c.Type, true)
	byActor(&n, "Deleted by", attr, attributed)
	return n
}

func formatChannelUpdate(before, after state.ChannelSnapshot, attr forensics.Attribution, attributed bool) notifier.Notification {
	n := notifier.Notification{
		Title:  "Channel updated",
		Color:  notifier.ColorYellow,
		Footer: "Channel ID: " + after.ID,
	}
	n.AddField("Channel", channelMention(after.ID), true)
	byActor(&n, "Updated by", attr, attributed)

	if before.Name != after.Name {
		n.AddField("Name", fmt.Sprintf("%s → %s", before.Name, after.Name), false)
	}
	if before.Topic != after.Topic {
		n.AddField("Topic before", quote(before.Topic), false)
		n.AddField("Topic after", quote(after.Topic), false)
	}
	if before.NSFW != after.NSFW {
		n.AddField("NSFW", fmt.Sprintf("%t → %t", before.NSFW, after.NSFW), true)
	}
	if before.ParentID != after.ParentID {
		n.AddField("Category", fmt.Sprintf("%s → %s", orNone(before.ParentID), orNone(after.ParentID)), true)
	}
	return n
}

func formatInviteCreate(inv Invite) notifier.Notification {
	n := notifier.Notification{
		Title: "Invite created",
		Color: notifier.ColorGreen,
	}
	n.AddField("Code", "`"+inv.Code+"`", true)
	n.AddField("Channel", channelMention(inv.ChannelID), true)
	n.AddField("Created by", mention(inv.InviterID), true)

	uses := "unlimited"
	if inv.MaxUses > 0 {
		uses = fmt.Sprintf("%d", inv.MaxUses)
	}
	n.AddField("Max uses", uses, true)

	expires := "never"
	if inv.MaxAge > 0 {
		expires = inv.MaxAge.String()
	}
	n.AddField("Expires after", expires, true)
	if inv.Temporary {
		n.AddField("Temporary membership", "yes", true)
	}
	return n
}

func formatInviteDelete(inv Invite) notifier.Notification {
	n := notifier.Notification{
		Title: "Invite deleted",
		Color: notifier.ColorRed,
	}
	n.AddField("Code", "`"+inv.Code+"`", true)
	n.AddField("Channel", channelMention(inv.ChannelID), true)
	return n
}
