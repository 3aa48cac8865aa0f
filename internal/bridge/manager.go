// ABOUTME: Bridge relation manager: creation guards, message relay, teardown
// ABOUTME: Failures are isolated per bridge; endpoint loss triggers cleanup

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashgrove/guildkeeper/internal/chat"
	"github.com/ashgrove/guildkeeper/internal/dedupe"
	"github.com/ashgrove/guildkeeper/internal/store"
)

// ErrSameChannel is returned when a bridge would connect a channel to
// itself.
var ErrSameChannel = errors.New("cannot bridge a channel to itself")

// ErrBridgeLimit is returned when either guild is at its bridge cap.
var ErrBridgeLimit = errors.New("bridge limit reached")

// ErrDuplicateBridge is returned when a live bridge already connects the
// same unordered channel pair.
var ErrDuplicateBridge = errors.New("bridge already exists")

// Manager owns the bridge relation: creation with integrity checks,
// message relay between endpoints, and cascading cleanup when an endpoint
// disappears.
type Manager struct {
	store       *store.Store
	chat        chat.Sender
	logger      *slog.Logger
	selfID      uint64
	maxPerGuild int
	seen        *dedupe.Cache
}

// NewManager builds a bridge manager. selfID is the bot's own user id;
// messages it authored are never relayed. maxPerGuild caps live bridges
// per guild; zero or negative means the default of 5.
func NewManager(st *store.Store, sender chat.Sender, selfID uint64, maxPerGuild int) *Manager {
	if maxPerGuild <= 0 {
		maxPerGuild = 5
	}
	return &Manager{
		store:       st,
		chat:        sender,
		logger:      slog.Default().With("component", "bridge"),
		selfID:      selfID,
		maxPerGuild: maxPerGuild,
		seen:        dedupe.New(5*time.Minute, 4096),
	}
}

// Create checks and persists a new bridge between two channel endpoints.
// Rejections are returned as sentinel errors: self-pairing, either guild
// at its cap, or a live bridge already covering the unordered pair. The
// storage layer's unique pair index backs up the duplicate check; its
// violation surfaces as ErrDuplicateBridge too.
func (m *Manager) Create(ctx context.Context, name string, guildA, channelA, guildB, channelB uint64) (*store.Bridge, error) {
	if channelA == channelB {
		return nil, ErrSameChannel
	}

	guilds := []uint64{guildA}
	if guildB != guildA {
		guilds = append(guilds, guildB)
	}
	for _, g := range guilds {
		n, err := m.store.CountBridgesForGuild(ctx, g)
		if err != nil {
			return nil, err
		}
		if n >= m.maxPerGuild {
			return nil, ErrBridgeLimit
		}
	}

	// Primary duplicate check: both orderings of the pair.
	if _, err := m.store.BridgeForPair(ctx, channelA, channelB); err == nil {
		return nil, ErrDuplicateBridge
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	b := &store.Bridge{
		Name:       name,
		GuildAID:   guildA,
		ChannelAID: channelA,
		GuildBID:   guildB,
		ChannelBID: channelB,
	}

	sess := m.store.NewSession()
	sess.Insert(b)
	if _, err := sess.Commit(ctx); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrDuplicateBridge
		}
		return nil, err
	}

	m.logger.Info("created bridge", "id", b.ID, "name", name,
		"channel_a", channelA, "channel_b", channelB)
	return b, nil
}

// HandleMessage relays an incoming message across every live bridge with
// the source channel as an endpoint. The bot's own messages are ignored.
// Each bridge is handled independently: a failed delivery is logged and
// does not stop the rest.
// A far endpoint that no longer resolves orphans its bridge, which is
// deleted; the surviving endpoint is notified best-effort.
func (m *Manager) HandleMessage(ctx context.Context, msg *chat.Message) error {
	// A forward comes back from the gateway as a fresh message authored
	// by the bot itself; relaying it would ping-pong between the
	// endpoints forever.
	if msg.AuthorID == m.selfID {
		return nil
	}

	if m.seen.CheckAndMark(fmt.Sprintf("msg:%d", msg.ID)) {
		m.logger.Debug("duplicate message ignored", "message_id", msg.ID)
		return nil
	}

	bridges, err := m.store.BridgesForChannel(ctx, msg.ChannelID)
	if err != nil {
		return err
	}

	for _, b := range bridges {
		_, farChannel, ok := b.Other(msg.ChannelID)
		if !ok {
			continue
		}

		if _, err := m.chat.ResolveChannel(ctx, farChannel); err != nil {
			if errors.Is(err, chat.ErrChannelGone) {
				m.teardown(ctx, b, msg.ChannelID)
				continue
			}
			m.logger.Warn("resolving bridge endpoint failed",
				"bridge", b.ID, "channel", farChannel, "error", err)
			continue
		}

		content := fmt.Sprintf("**%s** (via %s): %s", msg.AuthorName, b.Name, msg.Content)
		if err := m.chat.SendMessage(ctx, farChannel, content); err != nil {
			m.logger.Warn("bridge relay failed",
				"bridge", b.ID, "channel", farChannel, "error", err)
		}
	}
	return nil
}

// HandleChannelDelete removes every bridge with the destroyed channel as
// an endpoint and notifies each opposite endpoint once.
func (m *Manager) HandleChannelDelete(ctx context.Context, channelID uint64) error {
	bridges, err := m.store.BridgesForChannel(ctx, channelID)
	if err != nil {
		return err
	}
	for _, b := range bridges {
		if _, survivor, ok := b.Other(channelID); ok {
			m.teardown(ctx, b, survivor)
		}
	}
	return nil
}

// HandleGuildRemove removes every bridge touching the departed guild. The
// endpoint on the other guild, if any, is notified; a bridge internal to
// the departed guild has no survivor to tell.
func (m *Manager) HandleGuildRemove(ctx context.Context, guildID uint64) error {
	bridges, err := m.store.BridgesForGuild(ctx, guildID)
	if err != nil {
		return err
	}
	for _, b := range bridges {
		var survivor uint64
		switch {
		case b.GuildAID == guildID && b.GuildBID == guildID:
			// both ends gone with the guild
		case b.GuildAID == guildID:
			survivor = b.ChannelBID
		default:
			survivor = b.ChannelAID
		}

		if survivor == 0 {
			if err := m.store.SoftDeleteBridge(ctx, b.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				m.logger.Error("deleting bridge failed", "bridge", b.ID, "error", err)
			}
			continue
		}
		m.teardown(ctx, b, survivor)
	}
	return nil
}

// teardown deletes a bridge and tells the surviving endpoint. The
// notification is best-effort: the cleanup already happened, so a failed
// send is only logged.
func (m *Manager) teardown(ctx context.Context, b *store.Bridge, survivorChannel uint64) {
	if err := m.store.SoftDeleteBridge(ctx, b.ID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Error("deleting bridge failed", "bridge", b.ID, "error", err)
			return
		}
		// Already gone; someone else tore it down first.
		return
	}
	m.logger.Info("bridge torn down", "bridge", b.ID, "name", b.Name)

	notice := fmt.Sprintf("Bridge %q was removed because the other end no longer exists.", b.Name)
	if err := m.chat.SendMessage(ctx, survivorChannel, notice); err != nil {
		m.logger.Warn("bridge teardown notice failed",
			"bridge", b.ID, "channel", survivorChannel, "error", err)
	}
}
