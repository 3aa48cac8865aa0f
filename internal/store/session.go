// ABOUTME: Two-phase staged write session with get-or-create guild tracking
// ABOUTME: Stages inserts/updates/deletes in memory and commits them atomically

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

type op struct {
	kind   opKind
	entity any
}

// Session stages writes against the store. Nothing touches the database
// until Commit; a guild staged by Guild() that is never committed leaves
// no row behind. Sessions are not safe for concurrent use.
type Session struct {
	store  *Store
	guilds map[uint64]*GuildConfig
	staged map[any]bool
	ops    []op
}

// NewSession starts an empty write session.
func (s *Store) NewSession() *Session {
	return &Session{
		store:  s,
		guilds: make(map[uint64]*GuildConfig),
		staged: make(map[any]bool),
	}
}

// Guild returns the guild's config, creating a staged row when none
// exists. A staged row holds only the primary key until the caller sets
// fields and commits. Calling Guild twice for the same id returns the
// same instance, staged or persisted. A soft-deleted row is revived in
// place.
func (sess *Session) Guild(ctx context.Context, guildID uint64) (*GuildConfig, error) {
	if g, ok := sess.guilds[guildID]; ok {
		return g, nil
	}

	row := sess.store.db.QueryRowContext(ctx,
		`SELECT `+guildCols+` FROM guild_configs WHERE guild_id = ?`,
		i64(guildID))

	g, err := scanGuild(row)
	switch {
	case err == sql.ErrNoRows:
		g = &GuildConfig{GuildID: guildID}
		sess.stage(opInsert, g)
	case err != nil:
		return nil, fmt.Errorf("querying guild config: %w", err)
	case g.Deleted:
		g.Deleted = false
		sess.stage(opUpdate, g)
	}

	sess.guilds[guildID] = g
	return g, nil
}

// Insert stages a new entity. Entities keyed by a generated id get one
// assigned here so callers can reference it before the commit lands.
func (sess *Session) Insert(entity any) {
	switch e := entity.(type) {
	case *RoleGroup:
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
	case *RoleConfig:
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
	case *Quote:
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
	case *Reminder:
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
	case *Bridge:
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
	case *RegexChannel:
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
	}
	sess.stage(opInsert, entity)
}

// Update stages an update for an entity previously read from the store.
// Updating an entity already staged for insert is a no-op: the insert
// will carry the entity's field values as of commit time.
func (sess *Session) Update(entity any) {
	sess.stage(opUpdate, entity)
}

// Delete stages removal. Guild configs are hard-deleted so their child
// rows go with them; bridges are soft-deleted; everything else is a plain
// row delete.
func (sess *Session) Delete(entity any) {
	sess.stage(opDelete, entity)
}

func (sess *Session) stage(kind opKind, entity any) {
	if sess.staged[entity] {
		return
	}
	sess.staged[entity] = true
	sess.ops = append(sess.ops, op{kind: kind, entity: entity})
}

// Commit applies every staged operation in one transaction and reports
// the number of rows changed. Timestamps are stamped here: inserts get
// created_at = updated_at = now, updates advance updated_at only. Errors
// are returned as values, never panicked; a constraint violation surfaces
// as ErrConflict and leaves the database untouched.
func (sess *Session) Commit(ctx context.Context) (int64, error) {
	if len(sess.ops) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()

	tx, err := sess.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning commit: %w", err)
	}

	var changed int64
	for _, o := range sess.ops {
		res, err := sess.exec(ctx, tx, o, now)
		if err != nil {
			tx.Rollback()
			return 0, mapExecErr(err)
		}
		if res != nil {
			if n, err := res.RowsAffected(); err == nil {
				changed += n
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing session: %w", err)
	}

	sess.store.logger.Debug("session committed", "ops", len(sess.ops), "rows", changed)
	sess.ops = nil
	sess.staged = make(map[any]bool)
	return changed, nil
}

func (sess *Session) exec(ctx context.Context, tx *sql.Tx, o op, now time.Time) (sql.Result, error) {
	switch e := o.entity.(type) {
	case *GuildConfig:
		return sess.execGuild(ctx, tx, o.kind, e, now)
	case *RoleGroup:
		return sess.execRoleGroup(ctx, tx, o.kind, e, now)
	case *RoleConfig:
		return sess.execRoleConfig(ctx, tx, o.kind, e, now)
	case *Quote:
		return sess.execQuote(ctx, tx, o.kind, e, now)
	case *Reminder:
		return sess.execReminder(ctx, tx, o.kind, e, now)
	case *JokeTimeout:
		return sess.execJokeTimeout(ctx, tx, o.kind, e, now)
	case *Bridge:
		return sess.execBridge(ctx, tx, o.kind, e, now)
	case *RegexChannel:
		return sess.execRegexChannel(ctx, tx, o.kind, e, now)
	default:
		return nil, fmt.Errorf("unsupported entity type %T", o.entity)
	}
}

func (sess *Session) execGuild(ctx context.Context, tx *sql.Tx, kind opKind, g *GuildConfig, now time.Time) (sql.Result, error) {
	switch kind {
	case opInsert:
		g.touch(now, true)
		args := append(guildArgs(g), fmtTime(g.CreatedAt), fmtTime(g.UpdatedAt))
		return tx.ExecContext(ctx, `INSERT INTO guild_configs (`+guildCols+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			args...)
	case opUpdate:
		g.touch(now, false)
		args := append(guildArgs(g)[1:], fmtTime(g.UpdatedAt), i64(g.GuildID))
		return tx.ExecContext(ctx, `UPDATE guild_configs SET
			vouch_enabled = ?, vouch_role_id = ?, magic_role_id = ?,
			joke_rename_enabled = ?, custom_color_enabled = ?, reminders_enabled = ?,
			quotes_enabled = ?, quote_channel_id = ?, auto_role_id = ?,
			spellcheck_enabled = ?, spellcheck_role_id = ?,
			nickname_steal_enabled = ?, gif_convert_enabled = ?,
			quarantine_role_id = ?, quarantine_channel_id = ?,
			analysis_enabled = ?, analysis_channel_id = ?, analysis_min_age_days = ?,
			deleted = ?, updated_at = ?
			WHERE guild_id = ?`, args...)
	default:
		// Hard delete: SQLite cascades to every child table.
		return tx.ExecContext(ctx, `DELETE FROM guild_configs WHERE guild_id = ?`, i64(g.GuildID))
	}
}

func (sess *Session) execRoleGroup(ctx context.Context, tx *sql.Tx, kind opKind, rg *RoleGroup, now time.Time) (sql.Result, error) {
	switch kind {
	case opInsert:
		rg.touch(now, true)
		return tx.ExecContext(ctx, `INSERT INTO role_groups
			(id, guild_id, name, exclusive, required_role_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rg.ID, i64(rg.GuildID), rg.Name, rg.Exclusive, i64(rg.RequiredRoleID),
			fmtTime(rg.CreatedAt), fmtTime(rg.UpdatedAt))
	case opUpdate:
		rg.touch(now, false)
		return tx.ExecContext(ctx, `UPDATE role_groups SET
			name = ?, exclusive = ?, required_role_id = ?, updated_at = ?
			WHERE id = ?`,
			rg.Name, rg.Exclusive, i64(rg.RequiredRoleID), fmtTime(rg.UpdatedAt), rg.ID)
	default:
		return tx.ExecContext(ctx, `DELETE FROM role_groups WHERE id = ?`, rg.ID)
	}
}

func (sess *Session) execRoleConfig(ctx context.Context, tx *sql.Tx, kind opKind, rc *RoleConfig, now time.Time) (sql.Result, error) {
	switch kind {
	case opInsert:
		rc.touch(now, true)
		return tx.ExecContext(ctx, `INSERT INTO role_configs
			(id, group_id, name, role_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rc.ID, rc.GroupID, rc.Name, i64(rc.RoleID),
			fmtTime(rc.CreatedAt), fmtTime(rc.UpdatedAt))
	case opUpdate:
		rc.touch(now, false)
		return tx.ExecContext(ctx, `UPDATE role_configs SET
			name = ?, role_id = ?, updated_at = ?
			WHERE id = ?`,
			rc.Name, i64(rc.RoleID), fmtTime(rc.UpdatedAt), rc.ID)
	default:
		return tx.ExecContext(ctx, `DELETE FROM role_configs WHERE id = ?`, rc.ID)
	}
}

func (sess *Session) execQuote(ctx context.Context, tx *sql.Tx, kind opKind, q *Quote, now time.Time) (sql.Result, error) {
	switch kind {
	case opInsert:
		q.touch(now, true)
		return tx.ExecContext(ctx, `INSERT INTO quotes
			(id, guild_id, author_id, creator_id, channel_id, message_id, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, i64(q.GuildID), i64(q.AuthorID), i64(q.CreatorID),
			i64(q.ChannelID), i64(q.MessageID), q.Content,
			fmtTime(q.CreatedAt), fmtTime(q.UpdatedAt))
	case opUpdate:
		q.touch(now, false)
		return tx.ExecContext(ctx, `UPDATE quotes SET content = ?, updated_at = ? WHERE id = ?`,
			q.Content, fmtTime(q.UpdatedAt), q.ID)
	default:
		return tx.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, q.ID)
	}
}

func (sess *Session) execReminder(ctx context.Context, tx *sql.Tx, kind opKind, r *Reminder, now time.Time) (sql.Result, error) {
	switch kind {
	case opInsert:
		r.touch(now, true)
		return tx.ExecContext(ctx, `INSERT INTO reminders
			(id, guild_id, user_id, channel_id, due_at, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i64(r.GuildID), i64(r.UserID), i64(r.ChannelID),
			fmtTime(r.DueAt), r.Content, fmtTime(r.CreatedAt), fmtTime(r.UpdatedAt))
	case opUpdate:
		r.touch(now, false)
		return tx.ExecContext(ctx, `UPDATE reminders SET
			channel_id = ?, due_at = ?, content = ?, updated_at = ?
			WHERE id = ?`,
			i64(r.ChannelID), fmtTime(r.DueAt), r.Content, fmtTime(r.UpdatedAt), r.ID)
	default:
		return tx.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, r.ID)
	}
}

func (sess *Session) execJokeTimeout(ctx context.Context, tx *sql.Tx, kind opKind, jt *JokeTimeout, now time.Time) (sql.Result, error) {
	switch kind {
	case opInsert:
		jt.touch(now, true)
		return tx.ExecContext(ctx, `INSERT INTO joke_timeouts
			(guild_id, user_id, next_use_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			i64(jt.GuildID), i64(jt.UserID), fmtTime(jt.NextUseAt),
			fmtTime(jt.CreatedAt), fmtTime(jt.UpdatedAt))
	case opUpdate:
		jt.touch(now, false)
		return tx.ExecContext(ctx, `UPDATE joke_timeouts SET next_use_at = ?, updated_at = ?
			WHERE guild_id = ? AND user_id = ?`,
			fmtTime(jt.NextUseAt), fmtTime(jt.UpdatedAt), i64(jt.GuildID), i64(jt.UserID))
	default:
		return tx.ExecContext(ctx, `DELETE FROM joke_timeouts WHERE guild_id = ? AND user_id = ?`,
			i64(jt.GuildID), i64(jt.UserID))
	}
}

func (sess *Session) execBridge(ctx context.Context, tx *sql.Tx, kind opKind, b *Bridge, now time.Time) (sql.Result, error) {
	switch kind {
	case opInsert:
		b.touch(now, true)
		return tx.ExecContext(ctx, `INSERT INTO bridges
			(id, name, guild_a_id, channel_a_id, guild_b_id, channel_b_id, deleted, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Name, i64(b.GuildAID), i64(b.ChannelAID),
			i64(b.GuildBID), i64(b.ChannelBID), b.Deleted,
			fmtTime(b.CreatedAt), fmtTime(b.UpdatedAt))
	case opUpdate:
		b.touch(now, false)
		return tx.ExecContext(ctx, `UPDATE bridges SET name = ?, deleted = ?, updated_at = ? WHERE id = ?`,
			b.Name, b.Deleted, fmtTime(b.UpdatedAt), b.ID)
	default:
		// Bridges are soft-deleted; reads filter on the flag.
		b.Deleted = true
		b.touch(now, false)
		return tx.ExecContext(ctx, `UPDATE bridges SET deleted = 1, updated_at = ? WHERE id = ?`,
			fmtTime(b.UpdatedAt), b.ID)
	}
}

func (sess *Session) execRegexChannel(ctx context.Context, tx *sql.Tx, kind opKind, rc *RegexChannel, now time.Time) (sql.Result, error) {
	switch kind {
	case opInsert:
		rc.touch(now, true)
		return tx.ExecContext(ctx, `INSERT INTO regex_channels
			(id, guild_id, channel_id, pattern, punish_role_id, punish_message, delete_on_fail, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rc.ID, i64(rc.GuildID), i64(rc.ChannelID), rc.Pattern,
			i64(rc.PunishRoleID), rc.PunishMessage, rc.DeleteOnFail,
			fmtTime(rc.CreatedAt), fmtTime(rc.UpdatedAt))
	case opUpdate:
		rc.touch(now, false)
		return tx.ExecContext(ctx, `UPDATE regex_channels SET
			pattern = ?, punish_role_id = ?, punish_message = ?, delete_on_fail = ?, updated_at = ?
			WHERE id = ?`,
			rc.Pattern, i64(rc.PunishRoleID), rc.PunishMessage, rc.DeleteOnFail,
			fmtTime(rc.UpdatedAt), rc.ID)
	default:
		return tx.ExecContext(ctx, `DELETE FROM regex_channels WHERE id = ?`, rc.ID)
	}
}
