// ABOUTME: Entity types and sentinel errors for guildkeeper persistence
// ABOUTME: Defines GuildConfig, Bridge, Reminder and related row structs

package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
// Absence is an expected condition; callers branch on it with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update violates a uniqueness
// rule, whether detected by an application-level check or by a database
// constraint.
var ErrConflict = errors.New("conflict")

// Meta carries the timestamps shared by every mutable row. The store
// stamps these at commit time; callers never set them.
type Meta struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// touch stamps the timestamps for an insert or an update.
func (m *Meta) touch(now time.Time, insert bool) {
	if insert {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// GuildConfig holds every per-guild feature toggle and reference.
// Zero means "unset" for all id fields. One row per guild.
type GuildConfig struct {
	Meta
	GuildID uint64

	VouchEnabled bool
	VouchRoleID  uint64

	MagicRoleID uint64

	JokeRenameEnabled  bool
	CustomColorEnabled bool
	RemindersEnabled   bool

	QuotesEnabled  bool
	QuoteChannelID uint64

	AutoRoleID uint64

	SpellcheckEnabled bool
	SpellcheckRoleID  uint64

	NicknameStealEnabled bool
	GifConvertEnabled    bool

	QuarantineRoleID    uint64
	QuarantineChannelID uint64

	AnalysisEnabled    bool
	AnalysisChannelID  uint64
	AnalysisMinAgeDays int64

	Deleted bool

	// Child collections, populated only when the matching Include is
	// requested on a read.
	RoleGroups    []*RoleGroup
	Quotes        []*Quote
	Reminders     []*Reminder
	JokeTimeouts  []*JokeTimeout
	RegexChannels []*RegexChannel
}

// RoleGroup is a named set of self-assignable roles owned by one guild.
// Names are unique per guild, case-insensitively.
type RoleGroup struct {
	Meta
	ID             string
	GuildID        uint64
	Name           string
	Exclusive      bool
	RequiredRoleID uint64

	Roles []*RoleConfig
}

// RoleConfig maps a selectable name to exactly one external role. A role
// id may be registered in at most one group across all guilds.
type RoleConfig struct {
	Meta
	ID      string
	GroupID string
	Name    string
	RoleID  uint64
}

// Quote records a quoted message. A source message is quoted at most
// once, and a (guild, author, content) triple at most once.
type Quote struct {
	Meta
	ID        string
	GuildID   uint64
	AuthorID  uint64
	CreatorID uint64
	ChannelID uint64
	MessageID uint64
	Content   string
}

// Reminder is a deferred delivery owned by one guild and one user.
type Reminder struct {
	Meta
	ID        string
	GuildID   uint64
	UserID    uint64
	ChannelID uint64
	DueAt     time.Time
	Content   string
}

// JokeTimeout tracks the next time a user may trigger the joke rename.
// At most one row per (guild, user).
type JokeTimeout struct {
	Meta
	GuildID   uint64
	UserID    uint64
	NextUseAt time.Time
}

// Bridge relays messages between two channel endpoints, possibly in
// different guilds. The pair is conceptually unordered; sides A and B are
// storage labels only. Rows are soft-deleted.
type Bridge struct {
	Meta
	ID         string
	Name       string
	GuildAID   uint64
	ChannelAID uint64
	GuildBID   uint64
	ChannelBID uint64
	Deleted    bool
}

// Other returns the endpoint opposite the given channel, or false when
// the channel is not an endpoint of this bridge.
func (b *Bridge) Other(channelID uint64) (guildID, chanID uint64, ok bool) {
	switch channelID {
	case b.ChannelAID:
		return b.GuildBID, b.ChannelBID, true
	case b.ChannelBID:
		return b.GuildAID, b.ChannelAID, true
	}
	return 0, 0, false
}

// RegexChannel enforces a message pattern in one channel. At most one row
// per channel.
type RegexChannel struct {
	Meta
	ID            string
	GuildID       uint64
	ChannelID     uint64
	Pattern       string
	PunishRoleID  uint64
	PunishMessage string
	DeleteOnFail  bool
}

// Include names a child collection to eager-load on a guild read.
type Include int

const (
	IncludeRoleGroups Include = iota
	IncludeQuotes
	IncludeReminders
	IncludeJokeTimeouts
	IncludeRegexChannels
)
