// ABOUTME: Tests for the REST client's connection state and error mapping

package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnected_DownUntilFirstSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"999"}`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "tok")

	// A fresh client has never reached the API.
	assert.False(t, c.Connected())

	require.NoError(t, c.Check(context.Background()))
	assert.True(t, c.Connected())
}

func TestCheck_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewRESTClient(url, "tok")
	assert.Error(t, c.Check(context.Background()))
	assert.False(t, c.Connected())
}

func TestSendMessage_MarksConnected(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "tok")
	require.NoError(t, c.SendMessage(context.Background(), 42, "hello"))
	assert.True(t, c.Connected())
	assert.Equal(t, "Bot tok", auth)
}

func TestResolveChannel_GoneStaysConnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "tok")
	_, err := c.ResolveChannel(context.Background(), 42)
	assert.ErrorIs(t, err, ErrChannelGone)

	// A 404 is an API answer, not a transport failure.
	assert.True(t, c.Connected())
}

func TestResolveChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"42","guild_id":"7","name":"general"}`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "tok")
	ch, err := c.ResolveChannel(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), ch.ID)
	assert.Equal(t, uint64(7), ch.GuildID)
	assert.Equal(t, "general", ch.Name)
}
