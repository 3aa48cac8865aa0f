// ABOUTME: Read-only guild config queries with optional child eager-loading
// ABOUTME: Row scanning shared with the staged session's insert/update SQL

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const guildCols = `guild_id, vouch_enabled, vouch_role_id, magic_role_id,
	joke_rename_enabled, custom_color_enabled, reminders_enabled,
	quotes_enabled, quote_channel_id, auto_role_id,
	spellcheck_enabled, spellcheck_role_id,
	nickname_steal_enabled, gif_convert_enabled,
	quarantine_role_id, quarantine_channel_id,
	analysis_enabled, analysis_channel_id, analysis_min_age_days,
	deleted, created_at, updated_at`

// Guild retrieves a guild's config without any write side effect.
// Returns ErrNotFound if the guild has never been configured; callers
// treat absence as "every feature disabled". Child collections named in
// includes are eager-loaded.
func (s *Store) Guild(ctx context.Context, guildID uint64, includes ...Include) (*GuildConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+guildCols+` FROM guild_configs WHERE guild_id = ? AND deleted = 0`,
		i64(guildID))

	g, err := scanGuild(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying guild config: %w", err)
	}

	for _, inc := range includes {
		switch inc {
		case IncludeRoleGroups:
			if g.RoleGroups, err = s.RoleGroups(ctx, guildID); err != nil {
				return nil, err
			}
		case IncludeQuotes:
			if g.Quotes, err = s.Quotes(ctx, guildID, QuoteFilter{}); err != nil {
				return nil, err
			}
		case IncludeReminders:
			if g.Reminders, err = s.Reminders(ctx, ReminderFilter{GuildID: guildID}); err != nil {
				return nil, err
			}
		case IncludeJokeTimeouts:
			if g.JokeTimeouts, err = s.JokeTimeouts(ctx, guildID); err != nil {
				return nil, err
			}
		case IncludeRegexChannels:
			if g.RegexChannels, err = s.RegexChannels(ctx, guildID); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGuild(row scanner) (*GuildConfig, error) {
	var g GuildConfig
	var guildID, vouchRole, magicRole, quoteChannel, autoRole int64
	var spellRole, quarRole, quarChannel, analysisChannel int64
	var createdAt, updatedAt string

	err := row.Scan(
		&guildID,
		&g.VouchEnabled, &vouchRole,
		&magicRole,
		&g.JokeRenameEnabled, &g.CustomColorEnabled, &g.RemindersEnabled,
		&g.QuotesEnabled, &quoteChannel,
		&autoRole,
		&g.SpellcheckEnabled, &spellRole,
		&g.NicknameStealEnabled, &g.GifConvertEnabled,
		&quarRole, &quarChannel,
		&g.AnalysisEnabled, &analysisChannel, &g.AnalysisMinAgeDays,
		&g.Deleted,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.GuildID = u64(guildID)
	g.VouchRoleID = u64(vouchRole)
	g.MagicRoleID = u64(magicRole)
	g.QuoteChannelID = u64(quoteChannel)
	g.AutoRoleID = u64(autoRole)
	g.SpellcheckRoleID = u64(spellRole)
	g.QuarantineRoleID = u64(quarRole)
	g.QuarantineChannelID = u64(quarChannel)
	g.AnalysisChannelID = u64(analysisChannel)

	if err := g.scanTimes(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// guildArgs returns the bind values matching guildCols minus the
// timestamp pair, which the session stamps separately.
func guildArgs(g *GuildConfig) []any {
	return []any{
		i64(g.GuildID),
		g.VouchEnabled, i64(g.VouchRoleID),
		i64(g.MagicRoleID),
		g.JokeRenameEnabled, g.CustomColorEnabled, g.RemindersEnabled,
		g.QuotesEnabled, i64(g.QuoteChannelID),
		i64(g.AutoRoleID),
		g.SpellcheckEnabled, i64(g.SpellcheckRoleID),
		g.NicknameStealEnabled, g.GifConvertEnabled,
		i64(g.QuarantineRoleID), i64(g.QuarantineChannelID),
		g.AnalysisEnabled, i64(g.AnalysisChannelID), g.AnalysisMinAgeDays,
		g.Deleted,
	}
}
