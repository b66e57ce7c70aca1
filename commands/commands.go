// Package commands holds the application command registry and the plugin
// that syncs and dispatches them. Feature plugins register their commands
// explicitly during RegisterPlugin, there is no dynamic discovery.
package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/senticord/senticord/bot/eventsystem"
	"github.com/senticord/senticord/common"
)

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Commands",
		SysName:  "commands",
		Category: common.PluginCategoryCore,
	}
}

var logger = common.GetPluginLogger(&Plugin{})

func RegisterPlugin() {
	common.RegisterPlugin(&Plugin{})
}

// Command is a slash command together with its handler
type Command struct {
	*discordgo.ApplicationCommand

	// AdminOnly restricts the command to members with the administrator
	// permission, enforced at dispatch in addition to discord's own
	// default permission handling
	AdminOnly bool

	Handler func(evt *eventsystem.EventData, ic *discordgo.InteractionCreate, data *discordgo.ApplicationCommandInteractionData) (response string, err error)
}

var registry = make(map[string]*Command)

// RegisterCommand adds a command to the registry, panics on duplicate names
// since that is always a programming mistake
func RegisterCommand(cmd *Command) {
	if _, ok := registry[cmd.Name]; ok {
		panic("duplicate command registered: " + cmd.Name)
	}

	if cmd.AdminOnly && cmd.DefaultMemberPermissions == nil {
		perms := int64(discordgo.PermissionAdministrator)
		cmd.DefaultMemberPermissions = &perms
	}

	registry[cmd.Name] = cmd
}

func (p *Plugin) BotInit() {
	eventsystem.AddHandler(p, p.handleReady, eventsystem.EventReady)
	eventsystem.AddHandlerLegacy(p, p.handleInteractionCreate, eventsystem.EventInteractionCreate)
}

// handleReady overwrites the application command set with the current
// registry, discord diffs this server side so it's cheap when unchanged
func (p *Plugin) handleReady(evt *eventsystem.EventData) (retry bool, err error) {
	cmds := make([]*discordgo.ApplicationCommand, 0, len(registry))
	for _, v := range registry {
		cmds = append(cmds, v.ApplicationCommand)
	}

	_, err = evt.Session.ApplicationCommandBulkOverwrite(evt.Session.State.User.ID, "", cmds)
	if err != nil {
		logger.WithError(err).Error("failed syncing application commands")
		return true, err
	}

	logger.Infof("Synced %d application commands", len(cmds))
	return false, nil
}

func (p *Plugin) handleInteractionCreate(evt *eventsystem.EventData) {
	ic := evt.InteractionCreate()
	if ic.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := ic.ApplicationCommandData()

	cmd, ok := registry[data.Name]
	if !ok {
		return
	}

	if cmd.AdminOnly && !memberIsAdmin(ic) {
		p.respond(evt.Session, ic, "You need the administrator permission to use this command.")
		return
	}

	resp, err := cmd.Handler(evt, ic, &data)
	if err != nil {
		logger.WithError(err).WithField("command", data.Name).Error("command handler failed")
		resp = "Something went wrong running that command."
	}

	p.respond(evt.Session, ic, resp)
}

func (p *Plugin) respond(s *discordgo.Session, ic *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.WithError(err).Error("failed responding to interaction")
	}
}

func memberIsAdmin(ic *discordgo.InteractionCreate) bool {
	if ic.Member == nil {
		return false
	}

	return ic.Member.Permissions&discordgo.PermissionAdministrator != 0
}
