// ABOUTME: Regex-enforced channel queries, at most one row per channel

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const regexCols = `id, guild_id, channel_id, pattern, punish_role_id, punish_message, delete_on_fail, created_at, updated_at`

// RegexChannelFor returns the pattern row for a channel, or ErrNotFound
// when the channel is unenforced.
func (s *Store) RegexChannelFor(ctx context.Context, channelID uint64) (*RegexChannel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+regexCols+` FROM regex_channels WHERE channel_id = ?`, i64(channelID))

	rc, err := scanRegexChannel(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying regex channel: %w", err)
	}
	return rc, nil
}

// RegexChannels lists a guild's enforced channels.
func (s *Store) RegexChannels(ctx context.Context, guildID uint64) ([]*RegexChannel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+regexCols+` FROM regex_channels WHERE guild_id = ?`, i64(guildID))
	if err != nil {
		return nil, fmt.Errorf("querying regex channels: %w", err)
	}
	defer rows.Close()

	var out []*RegexChannel
	for rows.Next() {
		rc, err := scanRegexChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func scanRegexChannel(row scanner) (*RegexChannel, error) {
	var rc RegexChannel
	var guildID, channelID, punishRole int64
	var createdAt, updatedAt string

	err := row.Scan(&rc.ID, &guildID, &channelID, &rc.Pattern, &punishRole,
		&rc.PunishMessage, &rc.DeleteOnFail, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rc.GuildID, rc.ChannelID, rc.PunishRoleID = u64(guildID), u64(channelID), u64(punishRole)
	if err := rc.scanTimes(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &rc, nil
}
