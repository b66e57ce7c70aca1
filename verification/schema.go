package verification

var DBSchemas = []string{`
CREATE TABLE IF NOT EXISTS verification_pending_users (
	member_id TEXT PRIMARY KEY,
	guild_id TEXT NOT NULL,

	code TEXT NOT NULL,
	attempts INT NOT NULL,

	created_at TIMESTAMP WITH TIME ZONE NOT NULL
);
`}
