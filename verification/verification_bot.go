package verification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/senticord/senticord/bot"
	"github.com/senticord/senticord/bot/eventsystem"
)

var _ bot.BotInitHandler = (*Plugin)(nil)

func (p *Plugin) BotInit() {
	eventsystem.AddHandlerLegacy(p, p.handleMemberJoin, eventsystem.EventGuildMemberAdd)
	eventsystem.AddHandlerLegacy(p, p.handleMemberRemove, eventsystem.EventGuildMemberRemove)
	eventsystem.AddHandlerLegacy(p, p.handleMessageCreate, eventsystem.EventMessageCreate)
}

func (p *Plugin) handleMemberJoin(evt *eventsystem.EventData) {
	m := evt.GuildMemberAdd()

	if m.User.Bot {
		return
	}

	p.StartVerification(evt.Context(), m.GuildID, m.User)
}

// StartVerification issues a fresh challenge to the member: persists the
// pending record and delivers the rendered captcha over DM. A member that
// can't be DMed is removed immediately since they can never answer, and the
// record is cleaned up before the failure is reported.
func (p *Plugin) StartVerification(ctx context.Context, guildID string, user *discordgo.User) {
	code := GenerateCode(p.CodeLength)

	err := p.store.Create(ctx, user.ID, guildID, code)
	if err != nil {
		// challenge was not actually issued, nothing to clean up
		logger.WithError(err).WithField("guild", guildID).WithField("user", user.ID).Error("failed creating pending verification")
		return
	}

	p.notifier.Notify(ctx, guildID, user, "New member joined, waiting to be verified", colorInfo)

	img, err := p.renderer.Render(code)
	if err != nil {
		logger.WithError(err).WithField("user", user.ID).Error("failed rendering challenge")
		p.deletePending(ctx, user.ID)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Verify yourself",
		Description: fmt.Sprintf("Enter the code in the image below within %s to get access.", p.Timeout),
		Color:       colorInfo,
	}

	err = p.gateway.SendDirectMessage(user.ID, embed, "", img)
	if err == nil {
		return
	}

	if IsDMBlocked(err) {
		// no further responses are possible, don't leave the record dangling
		p.deletePending(ctx, user.ID)

		kickErr := p.gateway.RemoveMember(guildID, user.ID, "Cannot DM verification challenge")
		if kickErr != nil {
			logger.WithError(kickErr).WithField("guild", guildID).WithField("user", user.ID).Error("failed removing member with closed DMs")
		}

		p.notifier.Notify(ctx, guildID, user, "Removed: verification challenge could not be delivered (DMs closed)", colorDanger)
		return
	}

	// transient delivery failure, keep the record, the timeout path resolves
	// it if the member never gets a challenge to answer
	logger.WithError(err).WithField("guild", guildID).WithField("user", user.ID).Error("failed sending challenge dm")
}

// handleMemberRemove clears the pending record of a member that left (or
// was removed) while their challenge was outstanding.
func (p *Plugin) handleMemberRemove(evt *eventsystem.EventData) {
	m := evt.GuildMemberRemove()
	p.clearPendingOnLeave(evt.Context(), m.GuildID, m.User.ID)
}

func (p *Plugin) clearPendingOnLeave(ctx context.Context, guildID, memberID string) {
	handle := p.memberLocks.Lock(memberID, time.Second*10, time.Second*10)
	if handle == -1 {
		logger.WithField("user", memberID).Warn("failed acquiring member lock for leave cleanup")
		return
	}
	defer p.memberLocks.Unlock(memberID, handle)

	rec, err := p.store.Get(ctx, memberID)
	if err != nil {
		if err != ErrNotFound {
			logger.WithError(err).WithField("user", memberID).Error("failed reading pending verification")
		}
		return
	}

	// the member may have an outstanding challenge in a different guild
	if rec.GuildID != guildID {
		return
	}

	p.deletePending(ctx, memberID)
}

func (p *Plugin) handleMessageCreate(evt *eventsystem.EventData) {
	m := evt.MessageCreate()

	if m.Author == nil || m.Author.Bot {
		return
	}

	// only direct messages count as challenge responses
	if m.GuildID != "" {
		return
	}

	p.HandleResponse(evt.Context(), m.Author, m.Content)
}

// HandleResponse evaluates an inbound DM against the member's pending
// challenge and drives the transition to success, retry or failure. The
// whole evaluation is serialized per member, two near-simultaneous
// responses are processed one after the other against current state.
func (p *Plugin) HandleResponse(ctx context.Context, user *discordgo.User, content string) {
	handle := p.memberLocks.Lock(user.ID, time.Second*10, time.Second*10)
	if handle == -1 {
		logger.WithField("user", user.ID).Warn("failed acquiring member lock, dropping response")
		return
	}
	defer p.memberLocks.Unlock(user.ID, handle)

	rec, err := p.store.Get(ctx, user.ID)
	if err != nil {
		if err != ErrNotFound {
			logger.WithError(err).WithField("user", user.ID).Error("failed reading pending verification")
		}
		// no outstanding challenge, not our message
		return
	}

	// expiry wins over content, a correct answer past the deadline is still
	// a timeout
	if p.now().Sub(rec.CreatedAt) > p.Timeout {
		p.deletePending(ctx, user.ID)

		p.sendDM(user.ID, "Your verification challenge expired. You have been removed from the server, rejoin to try again.")
		p.kick(ctx, rec.GuildID, user, "Verification timeout", "Removed: verification challenge expired")
		return
	}

	if normalizeResponse(content) == rec.Code {
		p.deletePending(ctx, user.ID)

		p.sendDM(user.ID, "Verification passed, welcome!")
		p.grantVerifiedRole(ctx, rec.GuildID, user)
		p.notifier.Notify(ctx, rec.GuildID, user, "Member passed verification", colorSuccess)
		return
	}

	// wrong answer, the post-increment count decides the outcome so a
	// concurrent wrong answer can't observe the same prior value
	newCount, err := p.store.IncrementAttempts(ctx, user.ID)
	if err != nil {
		if err != ErrNotFound {
			logger.WithError(err).WithField("user", user.ID).Error("failed incrementing attempts")
		}
		return
	}

	if newCount >= p.MaxAttempts {
		p.deletePending(ctx, user.ID)

		p.sendDM(user.ID, "Too many wrong answers. You have been removed from the server, rejoin to try again.")
		p.kick(ctx, rec.GuildID, user, "Failed verification", "Removed: too many wrong verification answers")
		return
	}

	left := p.MaxAttempts - newCount
	plural := "tries"
	if left == 1 {
		plural = "try"
	}
	p.sendDM(user.ID, fmt.Sprintf("Wrong code, %d %s left.", left, plural))
}

// normalizeResponse strips the whitespace and casing noise humans add when
// typing codes back
func normalizeResponse(content string) string {
	return strings.ToUpper(strings.TrimSpace(content))
}

func (p *Plugin) grantVerifiedRole(ctx context.Context, guildID string, user *discordgo.User) {
	settings, err := p.settings.GetSettings(ctx, guildID)
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Error("failed resolving guild settings")
		return
	}

	if settings.VerifiedRole == "" {
		logger.WithField("guild", guildID).Warn("no verified role configured, skipping role grant")
		return
	}

	err = p.gateway.GrantRole(guildID, user.ID, settings.VerifiedRole)
	if err != nil {
		// the member may have left between answering and the grant
		logger.WithError(err).WithField("guild", guildID).WithField("user", user.ID).Warn("failed granting verified role")
	}
}

func (p *Plugin) kick(ctx context.Context, guildID string, user *discordgo.User, reason, logMessage string) {
	err := p.gateway.RemoveMember(guildID, user.ID, reason)
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).WithField("user", user.ID).Error("failed removing member")
	}

	p.notifier.Notify(ctx, guildID, user, logMessage, colorDanger)
}

func (p *Plugin) sendDM(memberID string, content string) {
	err := p.gateway.SendDirectMessage(memberID, nil, content, nil)
	if err != nil {
		logger.WithError(err).WithField("user", memberID).Debug("failed sending outcome dm")
	}
}

func (p *Plugin) deletePending(ctx context.Context, memberID string) {
	err := p.store.Delete(ctx, memberID)
	if err != nil {
		logger.WithError(err).WithField("user", memberID).Error("failed deleting pending verification")
	}
}
