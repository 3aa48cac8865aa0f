// ABOUTME: Versioned schema migration engine over PRAGMA user_version
// ABOUTME: Applies each version's statement batch in a single transaction

package store

import (
	"fmt"
)

// A migration is one schema version: an ordered batch of DDL statements
// applied atomically. Versions are applied in ascending order and a
// fully-applied version is never re-applied.
type migration struct {
	version    int
	statements []string
}

// migrations is the complete schema history. Append-only; never edit a
// shipped version.
var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE guild_configs (
				guild_id               INTEGER PRIMARY KEY,
				vouch_enabled          INTEGER NOT NULL DEFAULT 0,
				vouch_role_id          INTEGER NOT NULL DEFAULT 0,
				magic_role_id          INTEGER NOT NULL DEFAULT 0,
				joke_rename_enabled    INTEGER NOT NULL DEFAULT 0,
				custom_color_enabled   INTEGER NOT NULL DEFAULT 0,
				reminders_enabled      INTEGER NOT NULL DEFAULT 0,
				quotes_enabled         INTEGER NOT NULL DEFAULT 0,
				quote_channel_id       INTEGER NOT NULL DEFAULT 0,
				auto_role_id           INTEGER NOT NULL DEFAULT 0,
				spellcheck_enabled     INTEGER NOT NULL DEFAULT 0,
				spellcheck_role_id     INTEGER NOT NULL DEFAULT 0,
				quarantine_role_id     INTEGER NOT NULL DEFAULT 0,
				quarantine_channel_id  INTEGER NOT NULL DEFAULT 0,
				analysis_enabled       INTEGER NOT NULL DEFAULT 0,
				analysis_channel_id    INTEGER NOT NULL DEFAULT 0,
				analysis_min_age_days  INTEGER NOT NULL DEFAULT 0,
				deleted                INTEGER NOT NULL DEFAULT 0,
				created_at             TEXT NOT NULL,
				updated_at             TEXT NOT NULL
			)`,

			`CREATE TABLE role_groups (
				id               TEXT PRIMARY KEY,
				guild_id         INTEGER NOT NULL REFERENCES guild_configs(guild_id) ON DELETE CASCADE,
				name             TEXT NOT NULL COLLATE NOCASE,
				exclusive        INTEGER NOT NULL DEFAULT 0,
				required_role_id INTEGER NOT NULL DEFAULT 0,
				created_at       TEXT NOT NULL,
				updated_at       TEXT NOT NULL,

				UNIQUE (guild_id, name)
			)`,
			`CREATE INDEX idx_role_groups_guild ON role_groups(guild_id)`,

			`CREATE TABLE role_configs (
				id         TEXT PRIMARY KEY,
				group_id   TEXT NOT NULL REFERENCES role_groups(id) ON DELETE CASCADE,
				name       TEXT NOT NULL COLLATE NOCASE,
				role_id    INTEGER NOT NULL UNIQUE,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,

				UNIQUE (group_id, name)
			)`,
			`CREATE INDEX idx_role_configs_group ON role_configs(group_id)`,

			`CREATE TABLE quotes (
				id         TEXT PRIMARY KEY,
				guild_id   INTEGER NOT NULL REFERENCES guild_configs(guild_id) ON DELETE CASCADE,
				author_id  INTEGER NOT NULL,
				creator_id INTEGER NOT NULL,
				channel_id INTEGER NOT NULL,
				message_id INTEGER NOT NULL UNIQUE,
				content    TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,

				UNIQUE (guild_id, author_id, content)
			)`,
			`CREATE INDEX idx_quotes_guild ON quotes(guild_id)`,
			`CREATE INDEX idx_quotes_author ON quotes(guild_id, author_id)`,

			`CREATE TABLE reminders (
				id         TEXT PRIMARY KEY,
				guild_id   INTEGER NOT NULL REFERENCES guild_configs(guild_id) ON DELETE CASCADE,
				user_id    INTEGER NOT NULL,
				channel_id INTEGER NOT NULL,
				due_at     TEXT NOT NULL,
				content    TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_reminders_due ON reminders(due_at)`,
			`CREATE INDEX idx_reminders_user ON reminders(guild_id, user_id)`,

			`CREATE TABLE joke_timeouts (
				guild_id    INTEGER NOT NULL REFERENCES guild_configs(guild_id) ON DELETE CASCADE,
				user_id     INTEGER NOT NULL,
				next_use_at TEXT NOT NULL,
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL,

				PRIMARY KEY (guild_id, user_id)
			)`,

			`CREATE TABLE bridges (
				id           TEXT PRIMARY KEY,
				name         TEXT NOT NULL,
				guild_a_id   INTEGER NOT NULL,
				channel_a_id INTEGER NOT NULL,
				guild_b_id   INTEGER NOT NULL,
				channel_b_id INTEGER NOT NULL,
				deleted      INTEGER NOT NULL DEFAULT 0,
				created_at   TEXT NOT NULL,
				updated_at   TEXT NOT NULL
			)`,
			// Backstop for the application-level duplicate check: at most
			// one live bridge per unordered channel pair.
			`CREATE UNIQUE INDEX idx_bridges_pair
				ON bridges (min(channel_a_id, channel_b_id), max(channel_a_id, channel_b_id))
				WHERE deleted = 0`,
			`CREATE INDEX idx_bridges_channel_a ON bridges(channel_a_id)`,
			`CREATE INDEX idx_bridges_channel_b ON bridges(channel_b_id)`,

			`CREATE TABLE regex_channels (
				id             TEXT PRIMARY KEY,
				guild_id       INTEGER NOT NULL REFERENCES guild_configs(guild_id) ON DELETE CASCADE,
				channel_id     INTEGER NOT NULL UNIQUE,
				pattern        TEXT NOT NULL,
				punish_role_id INTEGER NOT NULL DEFAULT 0,
				punish_message TEXT NOT NULL DEFAULT '',
				delete_on_fail INTEGER NOT NULL DEFAULT 0,
				created_at     TEXT NOT NULL,
				updated_at     TEXT NOT NULL
			)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`ALTER TABLE guild_configs ADD COLUMN nickname_steal_enabled INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE guild_configs ADD COLUMN gif_convert_enabled INTEGER NOT NULL DEFAULT 0`,
		},
	},
}

// Migrate brings the schema up to the current target version. It runs at
// most once per Store; later calls return the first run's result. Open
// calls it before returning, so every handler sees a migrated schema.
func (s *Store) Migrate() error {
	s.migrateOnce.Do(func() {
		s.migrateErr = s.applyMigrations()
	})
	return s.migrateErr
}

func (s *Store) applyMigrations() error {
	return s.apply(migrations)
}

func (s *Store) apply(migs []migration) error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migs {
		if m.version <= current {
			continue
		}

		// One transaction per version: either every statement of the
		// batch lands together with the counter bump, or none do.
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.version, err)
		}

		for _, stmt := range m.statements {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: setting version: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}

		s.logger.Info("applied migration", "version", m.version, "statements", len(m.statements))
		current = m.version
	}

	return nil
}

// SchemaVersion reports the persisted schema version counter.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
