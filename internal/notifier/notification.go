package notifier

import (
	"time"

	"go-logrelay/pkg/util"

	"github.com/bwmarrin/discordgo"
)

// Accent colours per kind of change.
const (
	ColorRed    = 0xED4245
	ColorGreen  = 0x57F287
	ColorYellow = 0xFEE75C
	ColorBlue   = 0x5865F2
	ColorGrey   = 0x95A5A6
)

// Embed limits enforced by the platform.
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFields      = 25
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFooter      = 2048
)

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Notification is the structured payload posted to a log channel.
type Notification struct {
	GuildID       string
	Title         string
	Description   string
	Color         int
	AuthorName    string
	AuthorIconURL string
	Fields        []Field
	ThumbnailURL  string
	ImageURL      string
	Footer        string
	Timestamp     time.Time
}

// AddField appends a field, skipping empty values which the platform rejects.
func (n *Notification) AddField(name, value string, inline bool) {
	if value == "" {
		return
	}
	n.Fields = append(n.Fields, Field{Name: name, Value: value, Inline: inline})
}

func toEmbed(n Notification) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       util.Truncate(n.Title, maxTitle),
		Description: util.Truncate(n.Description, maxDescription),
		Color:       n.Color,
	}
	if !n.Timestamp.IsZero() {
		embed.Timestamp = n.Timestamp.UTC().Format(time.RFC3339)
	}
	if n.AuthorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: n.AuthorName, IconURL: n.AuthorIconURL}
	}
	if n.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: n.ThumbnailURL}
	}
	if n.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: n.ImageURL}
	}
	if n.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: util.Truncate(n.Footer, maxFooter)}
	}
	for i, f := range n.Fields {
		if i == maxFields {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   util.Truncate(f.Name, maxFieldName),
			Value:  util.Truncate(f.Value, maxFieldValue),
			Inline: f.Inline,
		})
	}
	return embed
}
