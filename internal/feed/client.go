package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/ticket-tracker/internal/model"
)

// ClientConfig holds subscriber settings.
type ClientConfig struct {
	URL               string        // ws:// or wss:// feed endpoint
	HandshakeTimeout  time.Duration // Dial timeout (default: 10s)
	ReconnectBaseWait time.Duration // First reconnect delay (default: 1s)
	ReconnectMaxWait  time.Duration // Backoff ceiling (default: 60s)
}

// DefaultClientConfig returns sensible defaults for url.
func DefaultClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:               url,
		HandshakeTimeout:  10 * time.Second,
		ReconnectBaseWait: time.Second,
		ReconnectMaxWait:  60 * time.Second,
	}
}

// Message is a received envelope with its payload still encoded.
type Message struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Event decodes an event payload.
func (m Message) Event() (model.Event, error) {
	var e Event
	if err := m.decode(TypeEvent, &e); err != nil {
		return model.Event{}, err
	}
	return model.Event{ProductionID: e.ProductionID, Name: e.Name, Venue: e.Venue}, nil
}

// Listings decodes a results payload.
func (m Message) Listings() ([]model.Listing, error) {
	var in []Listing
	if err := m.decode(TypeResults, &in); err != nil {
		return nil, err
	}
	out := make([]model.Listing, len(in))
	for i, l := range in {
		out[i] = model.Listing{
			ID:         l.ID,
			Section:    l.Section,
			Level:      l.Level,
			Row:        l.Row,
			Notes:      l.Notes,
			Quantity:   l.Quantity,
			BasePrice:  l.BasePrice,
			TotalPrice: l.TotalPrice,
			URL:        l.URL,
		}
	}
	return out, nil
}

// Updates decodes a changes payload.
func (m Message) Updates() ([]model.PriceUpdate, error) {
	var in []PriceUpdate
	if err := m.decode(TypeChanges, &in); err != nil {
		return nil, err
	}
	out := make([]model.PriceUpdate, len(in))
	for i, u := range in {
		out[i] = model.PriceUpdate{
			ListingID:     u.ListingID,
			Section:       u.Section,
			Row:           u.Row,
			CurrentPrice:  u.CurrentPrice,
			PreviousPrice: u.PreviousPrice,
			Change:        u.Change,
			URL:           u.URL,
		}
	}
	return out, nil
}

func (m Message) decode(want string, v any) error {
	if m.Type != want {
		return fmt.Errorf("message type %q is not %q", m.Type, want)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// Client subscribes to a feed and reconnects when the connection drops.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger
	dialer websocket.Dialer
}

// NewClient creates a feed Client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultClientConfig(cfg.URL)
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.ReconnectBaseWait <= 0 {
		cfg.ReconnectBaseWait = def.ReconnectBaseWait
	}
	if cfg.ReconnectMaxWait < cfg.ReconnectBaseWait {
		cfg.ReconnectMaxWait = cfg.ReconnectBaseWait
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		dialer: websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
	}
}

// Run delivers every message to handle until ctx is cancelled, reconnecting
// with exponential backoff. It returns ctx.Err().
func (c *Client) Run(ctx context.Context, handle func(Message)) error {
	wait := c.cfg.ReconnectBaseWait

	for {
		delivered, err := c.session(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if delivered {
			wait = c.cfg.ReconnectBaseWait
		}

		c.logger.Warn("feed disconnected", "url", c.cfg.URL, "error", err, "retry_in", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		// Exponential backoff
		wait *= 2
		if wait > c.cfg.ReconnectMaxWait {
			wait = c.cfg.ReconnectMaxWait
		}
	}
}

// session runs one connection. delivered reports whether any message arrived.
func (c *Client) session(ctx context.Context, handle func(Message)) (delivered bool, err error) {
	header := http.Header{}
	header.Set("Accept", "application/json")

	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	c.logger.Info("feed connected", "url", c.cfg.URL)

	// Unblock ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return delivered, err
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("skipping malformed feed message", "error", err)
			continue
		}
		delivered = true
		handle(msg)
	}
}
