package bridge

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 32
)

// Dispatcher applies client intents to the session.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent domain.Intent) error
}

// StateSource provides the snapshots pushed to clients.
type StateSource interface {
	State() domain.SessionState
	VisibleTracks() iter.Seq[domain.Track]
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session events out to every connected websocket client and feeds
// client intents into the dispatcher.
type Hub struct {
	logger     *slog.Logger
	bus        ports.EventBus
	dispatcher Dispatcher
	state      StateSource
	upgrader   websocket.Upgrader

	sub domain.SubscriptionID

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	writers sync.WaitGroup
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithAllowedOrigins lets browser pages from the given origins connect in
// addition to same-origin pages. "*" allows any origin.
func WithAllowedOrigins(origins ...string) HubOption {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = originChecker(origins)
	}
}

// NewHub creates a hub and subscribes it to all session events.
// Only same-origin browser pages and non-browser clients may connect unless
// WithAllowedOrigins says otherwise.
func NewHub(logger *slog.Logger, bus ports.EventBus, dispatcher Dispatcher, state StateSource, opts ...HubOption) *Hub {
	h := &Hub{
		logger:     logger.With(slog.String("component", "bridge")),
		bus:        bus,
		dispatcher: dispatcher,
		state:      state,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 << 10,
			CheckOrigin:     originChecker(nil),
		},
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.sub = bus.SubscribeAll(h.onEvent)
	return h
}

// originChecker accepts requests without an Origin header, same-origin
// requests and the listed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	set := lo.SliceToMap(allowed, func(o string) (string, struct{}) {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/"), struct{}{}
	})
	_, anyOrigin := set["*"]
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || anyOrigin {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.writers.Add(1)
	h.mu.Unlock()

	h.logger.Info("client connected", slog.String("remote", r.RemoteAddr))
	go h.writeLoop(c)

	h.sendTo(c, h.snapshot(""))
	h.readLoop(r.Context(), c)

	h.drop(c)
	_ = conn.Close()
	h.logger.Info("client disconnected", slog.String("remote", r.RemoteAddr))
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and detaches from the bus.
func (h *Hub) Close() {
	h.bus.Unsubscribe(h.sub)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
	h.mu.Unlock()

	h.writers.Wait()
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("client read failed", slog.String("error", err.Error()))
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			h.sendTo(c, encode(outbound{Type: TypeError, Error: "malformed message: " + err.Error()}))
			continue
		}
		if in.Cmd == cmdState {
			h.sendTo(c, h.snapshot(""))
			continue
		}

		intent := domain.Intent{Name: domain.IntentName(in.Cmd), Args: in.Args}
		if err := h.dispatcher.Dispatch(ctx, intent); err != nil {
			h.logger.Debug("intent rejected", slog.String("cmd", in.Cmd), slog.String("error", err.Error()))
			h.sendTo(c, encode(outbound{Type: TypeError, Cmd: in.Cmd, Error: err.Error()}))
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer h.writers.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = c.conn.Close()
				h.drop(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				h.drop(c)
				return
			}
		}
	}
}

func (h *Hub) onEvent(e domain.Event) {
	var msg []byte
	if p, ok := e.(domain.TrackProgressEvent); ok {
		msg = encode(outbound{
			Type:     TypeProgress,
			Event:    string(e.Type()),
			Position: p.Position.Seconds(),
			Duration: p.Duration.Seconds(),
		})
	} else {
		msg = h.snapshot(e.Type())
	}
	if msg == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.enqueueLocked(c, msg)
	}
}

func (h *Hub) snapshot(cause domain.EventType) []byte {
	return encode(outbound{
		Type:  TypeState,
		Event: string(cause),
		State: newStateView(h.state.State(), h.state.VisibleTracks()),
	})
}

func (h *Hub) sendTo(c *client, msg []byte) {
	if msg == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.enqueueLocked(c, msg)
	}
}

// enqueueLocked never blocks; a client that cannot keep up is dropped.
func (h *Hub) enqueueLocked(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("dropping slow client", slog.String("remote", c.conn.RemoteAddr().String()))
		delete(h.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func encode(m outbound) []byte {
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}
