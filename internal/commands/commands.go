package commands

import (
	"go-logrelay/internal/config"

	"github.com/bwmarrin/discordgo"
)

// Reply colours.
const (
	colorOK      = 0x57F287
	colorWarn    = 0xFEE75C
	colorBad     = 0xED4245
	colorNeutral = 0x2B2D31
)

// manageServer gates /logs for members without Manage Server.
var manageServer int64 = discordgo.PermissionManageServer

var guildOnly = false

// loggableChannelTypes are the channel kinds a log destination may be.
var loggableChannelTypes = []discordgo.ChannelType{
	discordgo.ChannelTypeGuildText,
	discordgo.ChannelTypeGuildNews,
}

func categoryChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(config.AllCategories))
	for _, c := range config.AllCategories {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  c.Label(),
			Value: string(c),
		})
	}
	return choices
}

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "logs",
			Description:              "Configure where server logs are sent",
			DefaultMemberPermissions: &manageServer,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "set",
					Description: "Send one log category to a channel",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "category",
							Description: "Which events to log",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    true,
							Choices:     categoryChoices(),
						},
						{
							Name:         "channel",
							Description:  "Channel to send logs to",
							Type:         discordgo.ApplicationCommandOptionChannel,
							Required:     true,
							ChannelTypes: loggableChannelTypes,
						},
					},
				},
				{
					Name:        "clear",
					Description: "Stop logging one category",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "category",
							Description: "Which events to stop logging",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    true,
							Choices:     categoryChoices(),
						},
					},
				},
				{
					Name:        "view",
					Description: "Show the configured log channels",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
			},
		},
		{
			Name:        "status",
			Description: "Show relay status",
		},
		{
			Name:        "ping",
			Description: "Check Discord API latency",
		},
	}
}
