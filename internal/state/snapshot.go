package state

import "time"

// MessageSnapshot is what the relay remembers about a message so it can
// still report it after the platform has forgotten the content.
type MessageSnapshot struct {
	ID              string
	GuildID         string
	ChannelID       string
	AuthorID        string
	AuthorTag       string
	AuthorAvatarURL string
	AuthorBot       bool
	Content         string
	Attachments     []string
	CreatedAt       time.Time
	Edited          bool
}

// RoleSnapshot carries the role fields compared on update. Role update
// events carry no previous state, so the relay keeps its own.
type RoleSnapshot struct {
	ID          string
	GuildID     string
	Name        string
	Color       int
	Permissions int64
	Hoist       bool
	Mentionable bool
	Managed     bool
}

// SameAs reports whether the fields shown in a role update are unchanged.
func (r RoleSnapshot) SameAs(o RoleSnapshot) bool {
	return r.Name == o.Name &&
		r.Color == o.Color &&
		r.Permissions == o.Permissions &&
		r.Hoist == o.Hoist &&
		r.Mentionable == o.Mentionable
}

// ChannelSnapshot carries the channel fields compared on update.
type ChannelSnapshot struct {
	ID       string
	GuildID  string
	Name     string
	Type     string
	Topic    string
	NSFW     bool
	ParentID string
	Position int
}

// SameAs ignores Position; moving one channel renumbers all its siblings.
func (c ChannelSnapshot) SameAs(o ChannelSnapshot) bool {
	return c.Name == o.Name &&
		c.Topic == o.Topic &&
		c.NSFW == o.NSFW &&
		c.ParentID == o.ParentID
}
