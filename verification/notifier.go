package verification

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/senticord/senticord/serverconfig"
)

// SettingsProvider resolves per guild configuration, satisfied by
// *serverconfig.Store.
type SettingsProvider interface {
	GetSettings(ctx context.Context, guildID string) (*serverconfig.GuildSettings, error)
}

// Log message colors, matching the severity of the event.
const (
	colorInfo    = 0x47aaed
	colorSuccess = 0x49ed47
	colorDanger  = 0xef4640
	colorWarning = 0xff8228
)

// Notifier emits human readable entries to a guild's configured log channel.
// It is strictly best-effort: an unset channel or a failed send never
// surfaces an error to the state transition that triggered it.
type Notifier struct {
	Settings SettingsProvider
	Gateway  Gateway
}

func (n *Notifier) Notify(ctx context.Context, guildID string, author *discordgo.User, action string, color int) {
	settings, err := n.Settings.GetSettings(ctx, guildID)
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Debug("notifier: failed resolving log channel")
		return
	}

	if settings.LogChannel == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Description: action,
		Color:       color,
	}

	if author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			IconURL: author.AvatarURL("128"),
			Name:    fmt.Sprintf("%s (%s)", author.Username, author.ID),
		}
	}

	err = n.Gateway.SendChannelMessage(settings.LogChannel, embed)
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).WithField("channel", settings.LogChannel).Debug("notifier: failed sending log message")
	}
}
