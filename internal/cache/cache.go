// Package cache is a small local SQLite database for state that should
// survive restarts but is not the notification collection itself: the
// seen-message ledger used by arrival sources for dedup, and the last
// known preference set so the settings view renders instantly offline.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ptran/notify-center/internal/model"
)

// seenRetention bounds how long dedup entries are kept.
const seenRetention = 30 * 24 * time.Hour

// Cache wraps the local SQLite database.
type Cache struct {
	db *sqlx.DB
}

// Open opens (or creates) the cache database at dbPath, enables WAL
// mode, and runs any pending schema migrations. Use ":memory:" for an
// ephemeral cache.
func Open(dbPath string) (*Cache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	// WAL for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &Cache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *Cache) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// MarkSeen records that a source message has already been turned into
// a notification. Idempotent.
func (c *Cache) MarkSeen(source, messageID string) error {
	_, err := c.db.Exec(
		"INSERT OR IGNORE INTO seen_messages (source, message_id) VALUES (?, ?)",
		source, messageID,
	)
	if err != nil {
		return fmt.Errorf("marking message seen: %w", err)
	}
	return nil
}

// IsSeen reports whether a source message was already ingested.
func (c *Cache) IsSeen(source, messageID string) (bool, error) {
	var count int
	err := c.db.Get(
		&count,
		"SELECT COUNT(*) FROM seen_messages WHERE source = ? AND message_id = ?",
		source, messageID,
	)
	if err != nil {
		return false, fmt.Errorf("checking seen message: %w", err)
	}
	return count > 0, nil
}

// PruneSeen drops dedup entries older than the retention window.
func (c *Cache) PruneSeen() error {
	cutoff := time.Now().Add(-seenRetention).UTC()
	_, err := c.db.Exec("DELETE FROM seen_messages WHERE seen_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("pruning seen messages: %w", err)
	}
	return nil
}

// prefsRow is the database shape of the preference snapshot.
type prefsRow struct {
	EmailEnabled       bool `db:"email_enabled"`
	PushEnabled        bool `db:"push_enabled"`
	SystemEnabled      bool `db:"system_enabled"`
	EventEnabled       bool `db:"event_enabled"`
	OpportunityEnabled bool `db:"opportunity_enabled"`
	MemberEnabled      bool `db:"member_enabled"`
}

// SavePreferences upserts the single preference snapshot row.
func (c *Cache) SavePreferences(prefs model.PreferenceSet) error {
	const query = `
		INSERT INTO preference_snapshot (
			id, email_enabled, push_enabled,
			system_enabled, event_enabled, opportunity_enabled, member_enabled,
			updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			email_enabled = excluded.email_enabled,
			push_enabled = excluded.push_enabled,
			system_enabled = excluded.system_enabled,
			event_enabled = excluded.event_enabled,
			opportunity_enabled = excluded.opportunity_enabled,
			member_enabled = excluded.member_enabled,
			updated_at = CURRENT_TIMESTAMP`

	_, err := c.db.Exec(query,
		prefs.EmailEnabled, prefs.PushEnabled,
		prefs.SystemEnabled, prefs.EventEnabled,
		prefs.OpportunityEnabled, prefs.MemberEnabled,
	)
	if err != nil {
		return fmt.Errorf("saving preference snapshot: %w", err)
	}
	return nil
}

// LoadPreferences reads the preference snapshot. The second return is
// false when no snapshot has been written yet.
func (c *Cache) LoadPreferences() (model.PreferenceSet, bool, error) {
	var row prefsRow
	err := c.db.Get(&row, `
		SELECT email_enabled, push_enabled,
			system_enabled, event_enabled, opportunity_enabled, member_enabled
		FROM preference_snapshot WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PreferenceSet{}, false, nil
		}
		return model.PreferenceSet{}, false, fmt.Errorf("loading preference snapshot: %w", err)
	}

	return model.PreferenceSet{
		EmailEnabled:       row.EmailEnabled,
		PushEnabled:        row.PushEnabled,
		SystemEnabled:      row.SystemEnabled,
		EventEnabled:       row.EventEnabled,
		OpportunityEnabled: row.OpportunityEnabled,
		MemberEnabled:      row.MemberEnabled,
	}, true, nil
}
