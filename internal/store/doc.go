// Package store provides persistent storage for guildkeeper using SQLite.
//
// # Architecture
//
// Store wraps a single SQLite file and exposes read-only queries per
// entity. Writes go through a Session: a two-phase staged unit that
// tracks guild configs (get-or-create), stages inserts/updates/deletes
// in memory, and applies them atomically on Commit. Nothing a session
// stages touches the database until Commit, so a guild fetched for a
// command that never completes leaves no row behind.
//
// # Data Models
//
//   - GuildConfig: per-guild feature toggles and role/channel references,
//     one row per guild, created lazily on first write
//   - RoleGroup / RoleConfig: self-assignable role sets with exclusivity
//     and gating rules
//   - Quote: quoted messages, unique per source message and per
//     (guild, author, content)
//   - Reminder: deferred deliveries scanned by the scheduler
//   - JokeTimeout: per-user cooldowns for the rename joke
//   - Bridge: channel pair relays, soft-deleted, unique per unordered pair
//   - RegexChannel: per-channel pattern enforcement
//
// Every mutable row carries created_at/updated_at, stamped by the session
// at commit time.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Foreign keys cascade: deleting a guild config removes its role groups,
// quotes, reminders, joke timeouts and regex channels; deleting a role
// group removes its role configs.
//
// # Migrations
//
// Schema versions are tracked in PRAGMA user_version. Open brings the
// schema to the current target before returning; each version's
// statement batch runs in one transaction and the counter only advances
// with it. A migration failure aborts Open, and the process must not
// serve without a migrated schema.
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist (expected condition)
//   - ErrConflict: a uniqueness rule was violated
//
// All methods accept context.Context. Use Open(":memory:") for tests.
package store
