package bot

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/senticord/senticord/bot/eventsystem"
	"github.com/senticord/senticord/common"
)

var (
	// When the bot was started
	Started = time.Now()
	Enabled bool // whether the bot is set to run at some point in this process
	Running bool // whether the bot is currently running

	logger = common.GetFixedPrefixLogger("bot")
)

// BotInitHandler plugins that need to add their event handlers implement
// this, fired when the bot is starting up, not for the webserver
type BotInitHandler interface {
	BotInit()
}

// BotStopperHandler runs when the bot is shutting down, call wg.Done when
// your plugin has finished its shutdown work
type BotStopperHandler interface {
	StopBot(wg *sync.WaitGroup)
}

// Run opens the gateway connection and starts processing events
func Run() {
	logger.Info("Running bot")

	session := common.BotSession
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	session.StateEnabled = true
	session.State.TrackChannels = true
	session.State.TrackRoles = true
	session.State.TrackMembers = true

	session.AddHandler(eventsystem.HandleEvent)

	for _, plugin := range common.Plugins {
		if initBot, ok := plugin.(BotInitHandler); ok {
			initBot.BotInit()
			logger.Info("Initialized bot plugin: ", plugin.PluginInfo().Name)
		}
	}

	err := session.Open()
	if err != nil {
		logger.WithError(err).Fatal("Failed opening gateway connection")
	}

	Running = true
}

// Stop shuts down the gateway connection and runs plugin stoppers
func Stop(wg *sync.WaitGroup) {
	for _, v := range common.Plugins {
		stopper, ok := v.(BotStopperHandler)
		if !ok {
			continue
		}
		wg.Add(1)
		logger.Debug("Sending stop event to stopper: ", v.PluginInfo().Name)
		go stopper.StopBot(wg)
	}

	err := common.BotSession.Close()
	if err != nil {
		logger.WithError(err).Error("Failed closing gateway connection")
	}

	Running = false
	wg.Done()
}
