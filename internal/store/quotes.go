// ABOUTME: Quote queries with author/content filtering and paging
// ABOUTME: Uniqueness (message id, guild+author+content) rides on DB constraints

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// QuoteFilter narrows a quote listing. Zero fields are ignored.
type QuoteFilter struct {
	AuthorID uint64
	Contains string
	Limit    int
	Offset   int
}

const quoteCols = `id, guild_id, author_id, creator_id, channel_id, message_id, content, created_at, updated_at`

// Quotes lists a guild's quotes matching the filter, oldest first.
func (s *Store) Quotes(ctx context.Context, guildID uint64, f QuoteFilter) ([]*Quote, error) {
	query := `SELECT ` + quoteCols + ` FROM quotes WHERE guild_id = ?`
	args := []any{i64(guildID)}
	if f.AuthorID != 0 {
		query += ` AND author_id = ?`
		args = append(args, i64(f.AuthorID))
	}
	if f.Contains != "" {
		query += ` AND content LIKE ?`
		args = append(args, "%"+f.Contains+"%")
	}
	query += ` ORDER BY created_at ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying quotes: %w", err)
	}
	defer rows.Close()

	var out []*Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// QuoteByMessage returns the quote for a source message, or ErrNotFound.
func (s *Store) QuoteByMessage(ctx context.Context, messageID uint64) (*Quote, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+quoteCols+` FROM quotes WHERE message_id = ?`, i64(messageID))

	q, err := scanQuote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying quote: %w", err)
	}
	return q, nil
}

func scanQuote(row scanner) (*Quote, error) {
	var q Quote
	var guildID, authorID, creatorID, channelID, messageID int64
	var createdAt, updatedAt string

	err := row.Scan(&q.ID, &guildID, &authorID, &creatorID, &channelID, &messageID,
		&q.Content, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	q.GuildID, q.AuthorID = u64(guildID), u64(authorID)
	q.CreatorID, q.ChannelID, q.MessageID = u64(creatorID), u64(channelID), u64(messageID)

	if err := q.scanTimes(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}
