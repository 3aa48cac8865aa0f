// ABOUTME: Messaging-surface interfaces consumed by the bridge manager and scheduler
// ABOUTME: Defines Sender, Conn and the incoming Message event shape

package chat

import (
	"context"
	"errors"
)

// ErrChannelGone is returned by ResolveChannel when the channel no longer
// exists on the messaging surface. Callers treat it as a cleanup trigger,
// not a failure to propagate.
var ErrChannelGone = errors.New("channel gone")

// Channel is the resolved handle for an external channel.
type Channel struct {
	ID      uint64
	GuildID uint64
	Name    string
}

// Message is an incoming message event from the gateway connection.
type Message struct {
	ID         uint64
	GuildID    uint64
	ChannelID  uint64
	AuthorID   uint64
	AuthorName string
	Content    string
}

// Sender delivers messages to the external messaging surface.
type Sender interface {
	// SendMessage posts content to a channel.
	SendMessage(ctx context.Context, channelID uint64, content string) error

	// ResolveChannel looks up a channel handle. Returns ErrChannelGone
	// when the channel has been destroyed or is otherwise unreachable.
	ResolveChannel(ctx context.Context, channelID uint64) (*Channel, error)
}

// Conn reports the liveness of the gateway connection. Periodic work
// checks it before touching the surface.
type Conn interface {
	Connected() bool
}

// Client is the full surface the core needs from a chat backend.
type Client interface {
	Sender
	Conn
}
