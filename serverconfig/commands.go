package serverconfig

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/senticord/senticord/bot/eventsystem"
	"github.com/senticord/senticord/commands"
	"github.com/senticord/senticord/common"
)

func registerCommands() {
	commands.RegisterCommand(&commands.Command{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "set-verified-role",
			Description: "Set the role granted to members that pass verification",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "The role to grant",
					Required:    true,
				},
			},
		},
		AdminOnly: true,
		Handler:   cmdSetVerifiedRole,
	})

	commands.RegisterCommand(&commands.Command{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "set-log-channel",
			Description: "Set the channel that receives verification log messages",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "The channel to log to",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildText,
					},
				},
			},
		},
		AdminOnly: true,
		Handler:   cmdSetLogChannel,
	})
}

func cmdSetVerifiedRole(evt *eventsystem.EventData, ic *discordgo.InteractionCreate, data *discordgo.ApplicationCommandInteractionData) (string, error) {
	role := data.Options[0].RoleValue(evt.Session, ic.GuildID)
	if role == nil {
		return "Unknown role.", nil
	}

	err := Default.SetSettings(evt.Context(), ic.GuildID, common.NewString(role.ID), nil)
	if err != nil {
		return "", err
	}

	logger.WithField("guild", ic.GuildID).Info("updated verified role")
	return fmt.Sprintf("Verified role set to **%s**.", role.Name), nil
}

func cmdSetLogChannel(evt *eventsystem.EventData, ic *discordgo.InteractionCreate, data *discordgo.ApplicationCommandInteractionData) (string, error) {
	channel := data.Options[0].ChannelValue(evt.Session)
	if channel == nil {
		return "Unknown channel.", nil
	}

	err := Default.SetSettings(evt.Context(), ic.GuildID, nil, common.NewString(channel.ID))
	if err != nil {
		return "", err
	}

	logger.WithField("guild", ic.GuildID).Info("updated log channel")
	return fmt.Sprintf("Log channel set to <#%s>.", channel.ID), nil
}
