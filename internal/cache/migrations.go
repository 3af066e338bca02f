package cache

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS seen_messages (
	source     TEXT NOT NULL,
	message_id TEXT NOT NULL,
	seen_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (source, message_id)
);

CREATE TABLE IF NOT EXISTS preference_snapshot (
	id                  INTEGER PRIMARY KEY CHECK (id = 1),
	email_enabled       INTEGER NOT NULL DEFAULT 1,
	push_enabled        INTEGER NOT NULL DEFAULT 1,
	system_enabled      INTEGER NOT NULL DEFAULT 1,
	event_enabled       INTEGER NOT NULL DEFAULT 1,
	opportunity_enabled INTEGER NOT NULL DEFAULT 1,
	member_enabled      INTEGER NOT NULL DEFAULT 1,
	updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_seen_messages_seen_at ON seen_messages(seen_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
