package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/runtimeconfig"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

var ErrNoListeners = errors.New("bridge: no listeners for origin")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 1 << 20
	sendBuffer = 16
)

// InboundFunc receives every message read from a connection along with the
// connection's origin.
type InboundFunc func(ctx context.Context, origin string, data []byte)

type client struct {
	channel string
	origin  string
	send    chan []byte
}

// Hub is the websocket transport for bridges. Connections join a channel,
// one per previewed page, and are tagged with the origin they connected
// from.
type Hub struct {
	upgrader websocket.Upgrader
	logger   interfaces.Logger
	onJoin   JoinFunc

	mu       sync.RWMutex
	channels map[string]map[*client]struct{}
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(logger interfaces.Logger) HubOption {
	return func(h *Hub) { h.logger = logging.OrNoOp(logger) }
}

// JoinFunc is called once a connection has joined a channel.
type JoinFunc func(ctx context.Context, channel, origin string)

// WithJoinHandler registers fn to run after every successful upgrade.
func WithJoinHandler(fn JoinFunc) HubOption {
	return func(h *Hub) { h.onJoin = fn }
}

// NewHub builds a hub that only upgrades requests whose Origin header
// passes allow.
func NewHub(allow func(origin string) bool, opts ...HubOption) *Hub {
	h := &Hub{
		logger:   logging.NoOp(),
		channels: map[string]map[*client]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			ok := allow != nil && allow(origin)
			if !ok {
				h.logger.Warn("bridge.upgrade_rejected", "origin", origin)
			}
			return ok
		},
	}
	return h
}

// Channel returns a Poster scoped to one channel.
func (h *Hub) Channel(name string) Poster {
	return channelPoster{hub: h, channel: name}
}

// Listeners counts the connections of a channel.
func (h *Hub) Listeners(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Serve upgrades the request and pumps messages until the connection
// closes. Inbound messages are passed to inbound.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, channel string, inbound InboundFunc) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{channel: channel, origin: r.Header.Get("Origin"), send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	go h.writePump(ctx, conn, c)
	if h.onJoin != nil {
		h.onJoin(ctx, channel, c.origin)
	}

	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("bridge.read_failed", "channel", channel, "error", err)
			}
			return nil
		}
		if inbound != nil {
			inbound(ctx, c.origin, data)
		}
	}
}

func (h *Hub) writePump(ctx context.Context, conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.channels[c.channel]
	if !ok {
		members = map[*client]struct{}{}
		h.channels[c.channel] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.channels[c.channel]
	if _, ok := members[c]; !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.channels, c.channel)
	}
	close(c.send)
}

// post queues data for every connection of channel that connected from
// origin. Slow connections drop the message.
func (h *Hub) post(channel, origin string, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.channels[channel] {
		if !sameOrigin(c.origin, origin) {
			continue
		}
		select {
		case c.send <- data:
			delivered++
		default:
			h.logger.Debug("bridge.send_dropped", "channel", channel, "origin", origin)
		}
	}
	return delivered
}

type channelPoster struct {
	hub     *Hub
	channel string
}

func (p channelPoster) Post(_ context.Context, origin string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if p.hub.post(p.channel, origin, data) == 0 {
		return ErrNoListeners
	}
	return nil
}

func sameOrigin(a, b string) bool {
	na, err := runtimeconfig.NormalizeOrigin(a)
	if err != nil {
		return false
	}
	nb, err := runtimeconfig.NormalizeOrigin(b)
	return err == nil && na == nb
}
