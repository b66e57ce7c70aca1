package verification

import (
	"bytes"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
)

// Gateway is the surface of the chat platform this plugin drives. Calls are
// best-effort from the state machine's perspective, errors are logged and
// never crash the handling of other members.
type Gateway interface {
	// SendDirectMessage delivers a message to the member's DM channel,
	// attachment may be nil
	SendDirectMessage(memberID string, embed *discordgo.MessageEmbed, content string, attachment []byte) error
	GrantRole(guildID, memberID, roleID string) error
	RemoveMember(guildID, memberID, reason string) error
	SendChannelMessage(channelID string, embed *discordgo.MessageEmbed) error
}

// SessionGateway implements Gateway on top of the shared discord session.
type SessionGateway struct {
	Session *discordgo.Session
}

var _ Gateway = (*SessionGateway)(nil)

func (g *SessionGateway) SendDirectMessage(memberID string, embed *discordgo.MessageEmbed, content string, attachment []byte) error {
	channel, err := g.Session.UserChannelCreate(memberID)
	if err != nil {
		return errors.WithStackIf(err)
	}

	send := &discordgo.MessageSend{
		Content: content,
	}
	if embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}
	if attachment != nil {
		send.Files = []*discordgo.File{
			{
				Name:        "captcha.png",
				ContentType: "image/png",
				Reader:      bytes.NewReader(attachment),
			},
		}
	}

	_, err = g.Session.ChannelMessageSendComplex(channel.ID, send)
	return errors.WithStackIf(err)
}

func (g *SessionGateway) GrantRole(guildID, memberID, roleID string) error {
	return errors.WithStackIf(g.Session.GuildMemberRoleAdd(guildID, memberID, roleID))
}

func (g *SessionGateway) RemoveMember(guildID, memberID, reason string) error {
	return errors.WithStackIf(g.Session.GuildMemberDeleteWithReason(guildID, memberID, reason))
}

func (g *SessionGateway) SendChannelMessage(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := g.Session.ChannelMessageSendEmbed(channelID, embed)
	return errors.WithStackIf(err)
}

// IsDMBlocked reports whether the error means the member can't be DMed at
// all (DMs disabled or the bot blocked), which is a policy outcome rather
// than a transient failure.
func IsDMBlocked(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser
	}

	return false
}
