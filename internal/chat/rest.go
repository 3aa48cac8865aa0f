// ABOUTME: Minimal REST client for the chat platform's channel and message APIs
// ABOUTME: Sends JSON over HTTP with a bearer token; resolves channel handles

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// RESTClient talks to the chat platform's HTTP API. It implements Client.
type RESTClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
	up      atomic.Bool
}

// NewRESTClient builds a client for the given API base URL and token.
// The connection is reported down until Check or a call succeeds.
func NewRESTClient(baseURL, token string) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default().With("component", "chat"),
	}
}

// Connected reports whether an API call has succeeded at the transport
// level since the last failure. API-level errors (404s and the like) do
// not mark the connection down.
func (c *RESTClient) Connected() bool {
	return c.up.Load()
}

// Check probes the API once and updates the connection state, so
// Connected reflects a real round-trip rather than optimism. Called at
// startup before any periodic work runs.
func (c *RESTClient) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/@me", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.up.Store(false)
		return fmt.Errorf("checking connection: %w", err)
	}
	defer resp.Body.Close()
	c.up.Store(true)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("checking connection: status %d", resp.StatusCode)
	}
	return nil
}

// SendMessage posts content to a channel.
func (c *RESTClient) SendMessage(ctx context.Context, channelID uint64, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, strconv.FormatUint(channelID, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.up.Store(false)
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()
	c.up.Store(true)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sending message: status %d", resp.StatusCode)
	}
	return nil
}

// ResolveChannel fetches a channel handle. A 404 (or 403, which the
// platform returns for departed guilds) maps to ErrChannelGone.
func (c *RESTClient) ResolveChannel(ctx context.Context, channelID uint64) (*Channel, error) {
	url := fmt.Sprintf("%s/channels/%s", c.baseURL, strconv.FormatUint(channelID, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.up.Store(false)
		return nil, fmt.Errorf("resolving channel: %w", err)
	}
	defer resp.Body.Close()
	c.up.Store(true)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return nil, ErrChannelGone
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("resolving channel: status %d", resp.StatusCode)
	}

	var payload struct {
		ID      string `json:"id"`
		GuildID string `json:"guild_id"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding channel: %w", err)
	}

	ch := &Channel{Name: payload.Name}
	if ch.ID, err = strconv.ParseUint(payload.ID, 10, 64); err != nil {
		return nil, fmt.Errorf("parsing channel id: %w", err)
	}
	if payload.GuildID != "" {
		if ch.GuildID, err = strconv.ParseUint(payload.GuildID, 10, 64); err != nil {
			return nil, fmt.Errorf("parsing guild id: %w", err)
		}
	}
	return ch, nil
}

var _ Client = (*RESTClient)(nil)
