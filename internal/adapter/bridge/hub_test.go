package bridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siraymusic/siray/internal/adapter/catalog"
	"github.com/siraymusic/siray/internal/adapter/eventbus"
	"github.com/siraymusic/siray/internal/logger"
	"github.com/siraymusic/siray/internal/service"
	"github.com/siraymusic/siray/internal/testutil"
)

type hubFixture struct {
	hub     *Hub
	session *service.SessionController
	server  *httptest.Server
}

func newHubFixture(t *testing.T, opts ...HubOption) *hubFixture {
	t.Helper()
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	session := service.NewSessionController(log, bus, catalog.NewSampleLibrary(), nil)
	dispatcher := service.NewDispatcher(log, session, nil)

	hub := NewHub(log, bus, dispatcher, session, opts...)
	server := httptest.NewServer(hub)

	t.Cleanup(func() {
		hub.Close()
		server.Close()
		session.Shutdown()
		_ = bus.Close()
	})
	return &hubFixture{hub: hub, session: session, server: server}
}

func (f *hubFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(outbound) bool) outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg outbound
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func isState(m outbound) bool { return m.Type == TypeState }

func TestHub_InitialSnapshot(t *testing.T) {
	f := newHubFixture(t)
	conn := f.dial(t)

	msg := readUntil(t, conn, isState)
	require.NotNil(t, msg.State)
	require.NotNil(t, msg.State.Current)
	assert.Equal(t, "1", msg.State.Current.ID)
	assert.Equal(t, "Midnight City", msg.State.Current.Title)
	assert.False(t, msg.State.Playing)
	assert.Equal(t, "none", msg.State.Repeat)
	assert.Equal(t, "home", msg.State.View)
	assert.Len(t, msg.State.Queue, 5)
	assert.Len(t, msg.State.Visible, 5)
	assert.Empty(t, msg.Event)
}

func TestHub_IntentRoundTrip(t *testing.T) {
	f := newHubFixture(t)
	conn := f.dial(t)
	readUntil(t, conn, isState)

	require.NoError(t, conn.WriteJSON(inbound{Cmd: "next"}))
	msg := readUntil(t, conn, func(m outbound) bool {
		return isState(m) && m.Event == "track.changed"
	})
	assert.Equal(t, "2", msg.State.Current.ID)
	assert.True(t, msg.State.Playing)
	assert.Equal(t, "2", f.session.State().CurrentTrack.ID)

	require.NoError(t, conn.WriteJSON(inbound{Cmd: "search", Args: map[string]string{"query": "dua"}}))
	msg = readUntil(t, conn, func(m outbound) bool {
		return isState(m) && m.Event == "browse.changed"
	})
	assert.Equal(t, "search", msg.State.View)
	require.Len(t, msg.State.Visible, 1)
	assert.Equal(t, "Levitating", msg.State.Visible[0].Title)
}

func TestHub_ProgressMessages(t *testing.T) {
	f := newHubFixture(t)
	conn := f.dial(t)
	readUntil(t, conn, isState)

	require.NoError(t, conn.WriteJSON(inbound{Cmd: "seek", Args: map[string]string{"position": "42"}}))
	msg := readUntil(t, conn, func(m outbound) bool { return m.Type == TypeProgress })
	assert.InDelta(t, 42.0, msg.Position, 1e-9)
	assert.Positive(t, msg.Duration)
}

func TestHub_Errors(t *testing.T) {
	f := newHubFixture(t)
	conn := f.dial(t)
	readUntil(t, conn, isState)

	require.NoError(t, conn.WriteJSON(inbound{Cmd: "dance"}))
	msg := readUntil(t, conn, func(m outbound) bool { return m.Type == TypeError })
	assert.Equal(t, "dance", msg.Cmd)
	assert.Contains(t, msg.Error, "unknown intent")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg = readUntil(t, conn, func(m outbound) bool { return m.Type == TypeError })
	assert.Contains(t, msg.Error, "malformed message")

	// the connection survives rejected requests
	require.NoError(t, conn.WriteJSON(inbound{Cmd: cmdState}))
	msg = readUntil(t, conn, isState)
	assert.Equal(t, "1", msg.State.Current.ID)
}

func TestHub_Broadcast(t *testing.T) {
	f := newHubFixture(t)
	a := f.dial(t)
	b := f.dial(t)
	readUntil(t, a, isState)
	readUntil(t, b, isState)

	require.Eventually(t, func() bool { return f.hub.Clients() == 2 }, time.Second, 5*time.Millisecond)

	f.session.ToggleShuffle()

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readUntil(t, conn, func(m outbound) bool {
			return isState(m) && m.Event == "shuffle.toggled"
		})
		assert.True(t, msg.State.Shuffle)
	}
}

func TestHub_Close(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...)

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	session := service.NewSessionController(log, bus, catalog.NewSampleLibrary(), nil)
	hub := NewHub(log, bus, service.NewDispatcher(log, session, nil), session)
	server := httptest.NewServer(hub)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	readUntil(t, conn, isState)

	hub.Close()
	hub.Close()
	assert.Zero(t, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "clients are disconnected on close")

	_ = conn.Close()
	server.Close()
	session.Shutdown()
	_ = bus.Close()
}

func (f *hubFixture) dialFrom(origin string) (*websocket.Conn, int, error) {
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {origin}})
	status := 0
	if resp != nil {
		status = resp.StatusCode
		_ = resp.Body.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
	return conn, status, err
}

func TestHub_OriginCheck(t *testing.T) {
	t.Run("same origin and configured origins", func(t *testing.T) {
		f := newHubFixture(t, WithAllowedOrigins("https://player.example.com/"))

		_, _, err := f.dialFrom(f.server.URL)
		assert.NoError(t, err)

		_, _, err = f.dialFrom("https://player.example.com")
		assert.NoError(t, err)

		_, status, err := f.dialFrom("https://evil.example.com")
		assert.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("foreign pages are rejected by default", func(t *testing.T) {
		f := newHubFixture(t)

		_, status, err := f.dialFrom("http://localhost.evil.example")
		assert.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("wildcard", func(t *testing.T) {
		f := newHubFixture(t, WithAllowedOrigins("*"))

		_, _, err := f.dialFrom("https://anywhere.example")
		assert.NoError(t, err)
	})
}
