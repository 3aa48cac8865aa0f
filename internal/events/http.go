// ABOUTME: HTTP intake for gateway lifecycle events
// ABOUTME: Dispatches message, channel-delete and guild-remove events to the bridge manager

package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ashgrove/guildkeeper/internal/bridge"
	"github.com/ashgrove/guildkeeper/internal/chat"
)

// Event is the envelope posted by the gateway sidecar. Ids arrive as
// decimal strings, the platform's JSON convention for snowflakes.
type Event struct {
	Type       string `json:"type"`
	MessageID  string `json:"message_id,omitempty"`
	GuildID    string `json:"guild_id,omitempty"`
	ChannelID  string `json:"channel_id,omitempty"`
	AuthorID   string `json:"author_id,omitempty"`
	AuthorName string `json:"author_name,omitempty"`
	Content    string `json:"content,omitempty"`
}

// Handler accepts gateway events over HTTP and feeds the bridge manager.
type Handler struct {
	bridges *bridge.Manager
	logger  *slog.Logger
}

// NewHandler builds the event intake handler.
func NewHandler(bridges *bridge.Manager) *Handler {
	return &Handler{
		bridges: bridges,
		logger:  slog.Default().With("component", "events"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ev Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid event payload", http.StatusBadRequest)
		return
	}

	if err := h.dispatch(r, &ev); err != nil {
		h.logger.Error("event handling failed", "type", ev.Type, "error", err)
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dispatch(r *http.Request, ev *Event) error {
	ctx := r.Context()

	switch ev.Type {
	case "message_create":
		msg := &chat.Message{
			AuthorName: ev.AuthorName,
			Content:    ev.Content,
		}
		var err error
		if msg.ID, err = parseID(ev.MessageID); err != nil {
			return err
		}
		if msg.ChannelID, err = parseID(ev.ChannelID); err != nil {
			return err
		}
		if msg.GuildID, err = parseID(ev.GuildID); err != nil {
			return err
		}
		if ev.AuthorID != "" {
			if msg.AuthorID, err = parseID(ev.AuthorID); err != nil {
				return err
			}
		}
		return h.bridges.HandleMessage(ctx, msg)

	case "channel_delete":
		channelID, err := parseID(ev.ChannelID)
		if err != nil {
			return err
		}
		return h.bridges.HandleChannelDelete(ctx, channelID)

	case "guild_remove":
		guildID, err := parseID(ev.GuildID)
		if err != nil {
			return err
		}
		return h.bridges.HandleGuildRemove(ctx, guildID)

	default:
		h.logger.Debug("ignoring event", "type", ev.Type)
		return nil
	}
}

func parseID(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing id")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing id %q: %w", s, err)
	}
	return v, nil
}
