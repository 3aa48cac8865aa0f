// ABOUTME: Bridge relation queries: endpoint lookups, pair checks, soft delete
// ABOUTME: A unique expression index backs up the application duplicate check

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const bridgeCols = `id, name, guild_a_id, channel_a_id, guild_b_id, channel_b_id, deleted, created_at, updated_at`

// BridgesForChannel lists live bridges with the given channel as either
// endpoint.
func (s *Store) BridgesForChannel(ctx context.Context, channelID uint64) ([]*Bridge, error) {
	return s.queryBridges(ctx,
		`SELECT `+bridgeCols+` FROM bridges
		 WHERE deleted = 0 AND (channel_a_id = ? OR channel_b_id = ?)`,
		i64(channelID), i64(channelID))
}

// BridgesForGuild lists live bridges with the given guild on either side.
func (s *Store) BridgesForGuild(ctx context.Context, guildID uint64) ([]*Bridge, error) {
	return s.queryBridges(ctx,
		`SELECT `+bridgeCols+` FROM bridges
		 WHERE deleted = 0 AND (guild_a_id = ? OR guild_b_id = ?)`,
		i64(guildID), i64(guildID))
}

// BridgeForPair returns the live bridge connecting the two channels in
// either orientation, or ErrNotFound.
func (s *Store) BridgeForPair(ctx context.Context, channelX, channelY uint64) (*Bridge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bridgeCols+` FROM bridges
		 WHERE deleted = 0
		   AND ((channel_a_id = ? AND channel_b_id = ?) OR (channel_a_id = ? AND channel_b_id = ?))`,
		i64(channelX), i64(channelY), i64(channelY), i64(channelX))

	b, err := scanBridge(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying bridge pair: %w", err)
	}
	return b, nil
}

// CountBridgesForGuild reports how many live bridges touch the guild.
func (s *Store) CountBridgesForGuild(ctx context.Context, guildID uint64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bridges
		 WHERE deleted = 0 AND (guild_a_id = ? OR guild_b_id = ?)`,
		i64(guildID), i64(guildID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting bridges: %w", err)
	}
	return n, nil
}

// SoftDeleteBridge marks a bridge as deleted. The row is kept; every read
// path filters on the flag. Returns ErrNotFound for an unknown or
// already-deleted bridge.
func (s *Store) SoftDeleteBridge(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bridges SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0`,
		fmtTime(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("deleting bridge: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.logger.Debug("soft-deleted bridge", "id", id)
	return nil
}

func (s *Store) queryBridges(ctx context.Context, query string, args ...any) ([]*Bridge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bridges: %w", err)
	}
	defer rows.Close()

	var out []*Bridge
	for rows.Next() {
		b, err := scanBridge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBridge(row scanner) (*Bridge, error) {
	var b Bridge
	var guildA, channelA, guildB, channelB int64
	var createdAt, updatedAt string

	err := row.Scan(&b.ID, &b.Name, &guildA, &channelA, &guildB, &channelB,
		&b.Deleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	b.GuildAID, b.ChannelAID = u64(guildA), u64(channelA)
	b.GuildBID, b.ChannelBID = u64(guildB), u64(channelB)

	if err := b.scanTimes(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
