// ABOUTME: Tests for the HTTP event intake and its dispatch to the bridge manager

package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashgrove/guildkeeper/internal/bridge"
	"github.com/ashgrove/guildkeeper/internal/chat"
	"github.com/ashgrove/guildkeeper/internal/store"
)

type recordingSender struct {
	sent []string
}

func (r *recordingSender) SendMessage(ctx context.Context, channelID uint64, content string) error {
	r.sent = append(r.sent, content)
	return nil
}

func (r *recordingSender) ResolveChannel(ctx context.Context, channelID uint64) (*chat.Channel, error) {
	return &chat.Channel{ID: channelID}, nil
}

func newTestHandler(t *testing.T) (*Handler, *store.Store, *recordingSender) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	sender := &recordingSender{}
	return NewHandler(bridge.NewManager(st, sender, 999, 0)), st, sender
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServeHTTP_MessageCreateRelays(t *testing.T) {
	h, st, sender := newTestHandler(t)

	sess := st.NewSession()
	sess.Insert(&store.Bridge{Name: "garden", GuildAID: 1, ChannelAID: 100, GuildBID: 2, ChannelBID: 200})
	_, err := sess.Commit(context.Background())
	require.NoError(t, err)

	w := post(h, `{
		"type": "message_create",
		"message_id": "9001",
		"guild_id": "1",
		"channel_id": "100",
		"author_id": "42",
		"author_name": "rook",
		"content": "hello"
	}`)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "**rook** (via garden): hello", sender.sent[0])
}

func TestServeHTTP_ChannelDeleteTearsDown(t *testing.T) {
	h, st, sender := newTestHandler(t)
	ctx := context.Background()

	sess := st.NewSession()
	sess.Insert(&store.Bridge{Name: "garden", GuildAID: 1, ChannelAID: 100, GuildBID: 2, ChannelBID: 200})
	_, err := sess.Commit(ctx)
	require.NoError(t, err)

	w := post(h, `{"type": "channel_delete", "channel_id": "100"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err = st.BridgeForPair(ctx, 100, 200)
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "was removed")
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServeHTTP_BadPayload(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := post(h, "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServeHTTP_MissingIDs(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := post(h, `{"type":"channel_delete"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServeHTTP_UnknownTypeIgnored(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := post(h, `{"type":"typing_start"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
