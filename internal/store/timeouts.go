// ABOUTME: Joke-rename timeout queries, one row per (guild, user)

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// JokeTimeout returns the timeout row for a user, or ErrNotFound when the
// user has never triggered the feature.
func (s *Store) JokeTimeout(ctx context.Context, guildID, userID uint64) (*JokeTimeout, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT guild_id, user_id, next_use_at, created_at, updated_at
		 FROM joke_timeouts WHERE guild_id = ? AND user_id = ?`,
		i64(guildID), i64(userID))

	jt, err := scanJokeTimeout(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying joke timeout: %w", err)
	}
	return jt, nil
}

// JokeTimeouts lists every timeout row for a guild.
func (s *Store) JokeTimeouts(ctx context.Context, guildID uint64) ([]*JokeTimeout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guild_id, user_id, next_use_at, created_at, updated_at
		 FROM joke_timeouts WHERE guild_id = ?`, i64(guildID))
	if err != nil {
		return nil, fmt.Errorf("querying joke timeouts: %w", err)
	}
	defer rows.Close()

	var out []*JokeTimeout
	for rows.Next() {
		jt, err := scanJokeTimeout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, jt)
	}
	return out, rows.Err()
}

func scanJokeTimeout(row scanner) (*JokeTimeout, error) {
	var jt JokeTimeout
	var guildID, userID int64
	var nextUseAt, createdAt, updatedAt string

	err := row.Scan(&guildID, &userID, &nextUseAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	jt.GuildID, jt.UserID = u64(guildID), u64(userID)
	if jt.NextUseAt, err = parseTime(nextUseAt); err != nil {
		return nil, fmt.Errorf("parsing next_use_at: %w", err)
	}
	if err := jt.scanTimes(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &jt, nil
}
