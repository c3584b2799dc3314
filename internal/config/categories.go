package config

import (
	"errors"
	"fmt"
	"strings"
)

// Category is a log topic with its own destination channel.
type Category string

const (
	CategoryMessages Category = "messages"
	CategoryVoice    Category = "voice"
	CategoryRoles    Category = "roles"
	CategoryChannels Category = "channels"
	CategoryMembers  Category = "members"
	CategoryInvites  Category = "invites"
)

// AllCategories is ordered by the release that introduced each category.
// The durable schema grows by appending columns in this order.
var AllCategories = []Category{
	CategoryMessages,
	CategoryVoice,
	CategoryRoles,
	CategoryChannels,
	CategoryMembers,
	CategoryInvites,
}

var ErrUnknownCategory = errors.New("unknown log category")

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Column is the durable column / field name for the category.
func (c Category) Column() string {
	return string(c) + "_channel_id"
}

// Label is the human-readable name used in command replies.
func (c Category) Label() string {
	switch c {
	case CategoryMessages:
		return "Messages"
	case CategoryVoice:
		return "Voice"
	case CategoryRoles:
		return "Roles"
	case CategoryChannels:
		return "Channels"
	case CategoryMembers:
		return "Members"
	case CategoryInvites:
		return "Invites"
	default:
		return string(c)
	}
}

// CategoryForColumn reverses Column. ok is false for columns that are not
// category destinations (guild_id, updated_at, columns from a newer schema).
func CategoryForColumn(column string) (Category, bool) {
	for _, c := range AllCategories {
		if c.Column() == column {
			return c, true
		}
	}
	return "", false
}
