// Package serverconfig owns the per guild settings: which role marks a
// member as verified and which channel receives the bot's action log.
package serverconfig

import (
	"context"
	"database/sql"

	"emperror.dev/errors"
	"github.com/senticord/senticord/common"
)

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Server Configuration",
		SysName:  "serverconfig",
		Category: common.PluginCategoryCore,
	}
}

var logger = common.GetPluginLogger(&Plugin{})

const DBSchema = `
CREATE TABLE IF NOT EXISTS guild_settings (
	guild_id TEXT PRIMARY KEY,

	-- empty string means unset, both fields are optional at all times
	verified_role TEXT NOT NULL DEFAULT '',
	log_channel TEXT NOT NULL DEFAULT ''
);
`

// Default is the store backed by the shared postgres connection, set up
// during RegisterPlugin
var Default *Store

func RegisterPlugin() {
	common.InitSchemas("serverconfig", DBSchema)
	common.RegisterPlugin(&Plugin{})

	Default = &Store{DB: common.PQ}

	registerCommands()
}

// GuildSettings holds the per guild configuration, the zero value is a valid
// "nothing configured" state
type GuildSettings struct {
	GuildID      string
	VerifiedRole string
	LogChannel   string
}

// Store reads and writes guild settings.
type Store struct {
	DB *sql.DB
}

// GetSettings returns the settings for a guild, a guild without a row gets
// the zero settings, never an error
func (s *Store) GetSettings(ctx context.Context, guildID string) (*GuildSettings, error) {
	settings := &GuildSettings{GuildID: guildID}

	const q = `SELECT verified_role, log_channel FROM guild_settings WHERE guild_id = $1`
	err := s.DB.QueryRowContext(ctx, q, guildID).Scan(&settings.VerifiedRole, &settings.LogChannel)
	if err != nil {
		if err == sql.ErrNoRows {
			return settings, nil
		}

		return nil, errors.WithStackIf(err)
	}

	return settings, nil
}

// SetSettings performs a partial update, nil fields preserve their prior
// values and the first write for a guild inserts the row
func (s *Store) SetSettings(ctx context.Context, guildID string, verifiedRole, logChannel *string) error {
	const q = `
INSERT INTO guild_settings (guild_id, verified_role, log_channel)
VALUES ($1, COALESCE($2, ''), COALESCE($3, ''))
ON CONFLICT (guild_id) DO UPDATE SET
	verified_role = COALESCE($2, guild_settings.verified_role),
	log_channel = COALESCE($3, guild_settings.log_channel)
`

	_, err := s.DB.ExecContext(ctx, q, guildID, nullable(verifiedRole), nullable(logChannel))
	return errors.WithStackIf(err)
}

func nullable(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *v, Valid: true}
}
