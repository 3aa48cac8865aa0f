// ABOUTME: Reminder queries: due-row scans, batch removal, creation guards
// ABOUTME: Duplicate (guild, user, content) detection is application-level

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ReminderFilter narrows a reminder listing. Zero fields are ignored.
type ReminderFilter struct {
	GuildID uint64
	UserID  uint64
	Limit   int
	Offset  int
}

const reminderCols = `id, guild_id, user_id, channel_id, due_at, content, created_at, updated_at`

// Reminders lists reminders matching the filter, soonest due first.
func (s *Store) Reminders(ctx context.Context, f ReminderFilter) ([]*Reminder, error) {
	query := `SELECT ` + reminderCols + ` FROM reminders WHERE 1=1`
	var args []any
	if f.GuildID != 0 {
		query += ` AND guild_id = ?`
		args = append(args, i64(f.GuildID))
	}
	if f.UserID != 0 {
		query += ` AND user_id = ?`
		args = append(args, i64(f.UserID))
	}
	query += ` ORDER BY due_at ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	defer rows.Close()

	var out []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DueReminders returns every reminder whose due time is at or before now.
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]*Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reminderCols+` FROM reminders WHERE due_at <= ? ORDER BY due_at ASC`,
		fmtTime(now))
	if err != nil {
		return nil, fmt.Errorf("querying due reminders: %w", err)
	}
	defer rows.Close()

	var out []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteReminders removes the given reminders in one statement. Used by
// the scheduler after a delivery pass, success or not.
func (s *Store) DeleteReminders(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting reminders: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountUserReminders reports how many reminders a user holds in a guild.
func (s *Store) CountUserReminders(ctx context.Context, guildID, userID uint64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminders WHERE guild_id = ? AND user_id = ?`,
		i64(guildID), i64(userID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting reminders: %w", err)
	}
	return n, nil
}

// ReminderExists reports whether the (guild, user, content) triple is
// already scheduled. This uniqueness rule is checked, not DB-enforced.
func (s *Store) ReminderExists(ctx context.Context, guildID, userID uint64, content string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM reminders WHERE guild_id = ? AND user_id = ? AND content = ? LIMIT 1`,
		i64(guildID), i64(userID), content).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking reminder: %w", err)
	}
	return true, nil
}

func scanReminder(row scanner) (*Reminder, error) {
	var r Reminder
	var guildID, userID, channelID int64
	var dueAt, createdAt, updatedAt string

	if err := row.Scan(&r.ID, &guildID, &userID, &channelID, &dueAt, &r.Content, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scanning reminder: %w", err)
	}

	r.GuildID, r.UserID, r.ChannelID = u64(guildID), u64(userID), u64(channelID)

	var err error
	if r.DueAt, err = parseTime(dueAt); err != nil {
		return nil, fmt.Errorf("parsing due_at: %w", err)
	}
	if err := r.scanTimes(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
