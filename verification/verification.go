// Package verification gates new members behind a captcha challenge
// delivered over DM, granting the configured verified role on success and
// removing the member on timeout or too many wrong answers.
package verification

import (
	"time"

	"github.com/senticord/senticord/common"
	"github.com/senticord/senticord/common/config"
	"github.com/senticord/senticord/common/keylock"
	"github.com/senticord/senticord/serverconfig"
)

var (
	confChallengeTimeout = config.RegisterOption("senticord.verification.timeout_mins", "Minutes a member has to solve their challenge", 20)
	confMaxAttempts      = config.RegisterOption("senticord.verification.max_attempts", "Wrong answers before the member is removed", 2)
	confCodeLength       = config.RegisterOption("senticord.verification.code_length", "Length of the challenge code", 6)
)

type Plugin struct {
	store    PendingStore
	settings SettingsProvider
	gateway  Gateway
	notifier *Notifier
	renderer *CaptchaRenderer

	// memberLocks serializes challenge evaluation per member so two
	// near-simultaneous responses can't double-process a record
	memberLocks *keylock.KeyLock[string]

	// now is swapped out in tests to control the clock
	now func() time.Time

	Timeout     time.Duration
	MaxAttempts int
	CodeLength  int
}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Verification",
		SysName:  "verification",
		Category: common.PluginCategoryModeration,
	}
}

var logger = common.GetPluginLogger(&Plugin{})

func RegisterPlugin() {
	renderer, err := NewCaptchaRenderer()
	if err != nil {
		// without a usable font the whole feature is dead, treat it as a
		// startup configuration error rather than failing per member
		logger.WithError(err).Fatal("failed initializing captcha renderer")
	}

	gateway := &SessionGateway{Session: common.BotSession}
	settings := serverconfig.Default

	p := &Plugin{
		store:       &PQPendingStore{DB: common.PQ},
		settings:    settings,
		gateway:     gateway,
		notifier:    &Notifier{Settings: settings, Gateway: gateway},
		renderer:    renderer,
		memberLocks: keylock.NewKeyLock[string](),
		now:         time.Now,
		Timeout:     time.Duration(confChallengeTimeout.GetInt()) * time.Minute,
		MaxAttempts: confMaxAttempts.GetInt(),
		CodeLength:  confCodeLength.GetInt(),
	}

	common.InitSchemas("verification", DBSchemas...)
	common.RegisterPlugin(p)
}
