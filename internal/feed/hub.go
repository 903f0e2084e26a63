package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/ticket-tracker/internal/model"
)

// HubConfig holds subscriber connection settings.
type HubConfig struct {
	SendBuffer   int           // Queued messages per subscriber before it is dropped
	WriteTimeout time.Duration // Deadline for a single write
	PingInterval time.Duration // Keepalive ping period
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBuffer:   16,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// Hub fans poll results out to connected WebSocket clients. It implements
// the poller's reporter interface and is an http.Handler for the upgrade.
type Hub struct {
	cfg      HubConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
	now      func() time.Time

	mu   sync.Mutex
	subs map[*subscriber]struct{}

	// Replayed to new subscribers.
	lastEvt []byte
	lastRes []byte
}

// NewHub creates a Hub.
func NewHub(cfg HubConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	// Room for the replayed snapshot.
	if cfg.SendBuffer < 2 {
		cfg.SendBuffer = DefaultHubConfig().SendBuffer
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now:  time.Now,
		subs: make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("feed upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	for _, msg := range [][]byte{h.lastEvt, h.lastRes} {
		if msg != nil {
			sub.send <- msg
		}
	}
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("feed subscriber connected", "remote", r.RemoteAddr, "subscribers", count)

	go h.writeLoop(sub)
	go h.readLoop(sub)
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Event implements the reporter interface.
func (h *Hub) Event(e model.Event) {
	if msg := h.encode(TypeEvent, toEvent(e)); msg != nil {
		h.mu.Lock()
		h.lastEvt = msg
		h.mu.Unlock()
		h.broadcast(msg)
	}
}

// Results implements the reporter interface.
func (h *Hub) Results(listings []model.Listing) {
	if msg := h.encode(TypeResults, toListings(listings)); msg != nil {
		h.mu.Lock()
		h.lastRes = msg
		h.mu.Unlock()
		h.broadcast(msg)
	}
}

// Changes implements the reporter interface.
func (h *Hub) Changes(updates []model.PriceUpdate) {
	if msg := h.encode(TypeChanges, toUpdates(updates)); msg != nil {
		h.broadcast(msg)
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second),
		)
		sub.close()
	}
}

func (h *Hub) encode(typ string, data any) []byte {
	msg, err := json.Marshal(Envelope{Type: typ, At: h.now().UTC(), Data: data})
	if err != nil {
		h.logger.Error("feed encode failed", "type", typ, "error", err)
		return nil
	}
	return msg
}

// broadcast queues msg for every subscriber without blocking. A subscriber
// whose queue is full is dropped.
func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.send <- msg:
		default:
			h.logger.Warn("dropping slow feed subscriber", "remote", sub.conn.RemoteAddr().String())
			delete(h.subs, sub)
			sub.close()
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

// writeLoop drains the subscriber queue and sends keepalive pings.
func (h *Hub) writeLoop(sub *subscriber) {
	defer h.remove(sub)

	var ping <-chan time.Time
	if h.cfg.PingInterval > 0 {
		ticker := time.NewTicker(h.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-sub.done:
			return
		case msg := <-sub.send:
			if h.cfg.WriteTimeout > 0 {
				sub.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("feed write failed", "error", err)
				return
			}
		case <-ping:
			deadline := time.Now().Add(time.Second)
			if err := sub.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				return
			}
		}
	}
}

// readLoop discards client frames and detects disconnects.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub)

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}
