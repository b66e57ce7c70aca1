// Package stdcommands holds the small general purpose commands that don't
// belong to any feature plugin.
package stdcommands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/senticord/senticord/bot/eventsystem"
	"github.com/senticord/senticord/commands"
	"github.com/senticord/senticord/common"
)

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Standard Commands",
		SysName:  "stdcommands",
		Category: common.PluginCategoryCore,
	}
}

func RegisterPlugin() {
	common.RegisterPlugin(&Plugin{})

	commands.RegisterCommand(&commands.Command{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "ping",
			Description: "Check that the bot is alive",
		},
		Handler: cmdPing,
	})

	commands.RegisterCommand(&commands.Command{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "panel",
			Description: "Get a link to this server's management panel",
		},
		Handler: cmdPanel,
	})
}

func cmdPing(evt *eventsystem.EventData, ic *discordgo.InteractionCreate, data *discordgo.ApplicationCommandInteractionData) (string, error) {
	return fmt.Sprintf("Pong! Gateway latency: %s", evt.Session.HeartbeatLatency()), nil
}

func cmdPanel(evt *eventsystem.EventData, ic *discordgo.InteractionCreate, data *discordgo.ApplicationCommandInteractionData) (string, error) {
	if ic.GuildID == "" {
		return "This command can only be used in a server.", nil
	}

	return fmt.Sprintf("Manage this server at: https://%s/manage/%s", common.ConfHost.GetString(), ic.GuildID), nil
}
