package feed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(DefaultHubConfig(), nil)
	hub.now = func() time.Time { return fixedNow }
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != want {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", hub.Subscribers(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type rawEnvelope struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) rawEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env rawEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestHub_ReplaysSnapshot(t *testing.T) {
	hub, server := newTestHub(t)

	hub.Event(model.Event{ProductionID: "5471078", Name: "Patriots vs Jets", Venue: "Gillette Stadium"})
	hub.Results([]model.Listing{{
		ID:         "L-1",
		Section:    "312",
		Level:      "Loge",
		BasePrice:  decimal.RequireFromString("170"),
		TotalPrice: decimal.RequireFromString("200"),
	}})

	conn := dial(t, server)

	env := readEnvelope(t, conn)
	if env.Type != TypeEvent || !env.At.Equal(fixedNow) {
		t.Fatalf("first envelope = %s at %v, want event", env.Type, env.At)
	}
	var evt Event
	if err := json.Unmarshal(env.Data, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.Name != "Patriots vs Jets" || evt.ProductionID != "5471078" {
		t.Errorf("event = %+v", evt)
	}

	env = readEnvelope(t, conn)
	if env.Type != TypeResults {
		t.Fatalf("second envelope = %s, want results", env.Type)
	}
	var listings []Listing
	if err := json.Unmarshal(env.Data, &listings); err != nil {
		t.Fatalf("decode listings: %v", err)
	}
	if len(listings) != 1 || listings[0].ID != "L-1" || listings[0].Fees.String() != "30" {
		t.Errorf("listings = %+v", listings)
	}
}

func TestHub_BroadcastChanges(t *testing.T) {
	hub, server := newTestHub(t)

	a := dial(t, server)
	b := dial(t, server)
	waitSubscribers(t, hub, 2)

	hub.Changes([]model.PriceUpdate{{
		ListingID:     "L-1",
		Section:       "312",
		Row:           "5",
		PreviousPrice: decimal.NewFromInt(200),
		CurrentPrice:  decimal.NewFromInt(180),
		Change:        decimal.NewFromInt(-20),
	}})

	for _, conn := range []*websocket.Conn{a, b} {
		env := readEnvelope(t, conn)
		if env.Type != TypeChanges {
			t.Fatalf("envelope type = %s, want changes", env.Type)
		}
		var updates []PriceUpdate
		if err := json.Unmarshal(env.Data, &updates); err != nil {
			t.Fatalf("decode updates: %v", err)
		}
		if len(updates) != 1 || updates[0].Direction != "decreased" || updates[0].Change.String() != "-20" {
			t.Errorf("updates = %+v", updates)
		}
	}
}

func TestHub_RawChangePayload(t *testing.T) {
	hub, server := newTestHub(t)
	conn := dial(t, server)
	waitSubscribers(t, hub, 1)

	hub.Changes([]model.PriceUpdate{{ListingID: "L-1", Change: decimal.NewFromInt(5), CurrentPrice: decimal.NewFromInt(5)}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"current_price":"5"`) {
		t.Errorf("prices should be JSON strings: %s", data)
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, server := newTestHub(t)

	conn := dial(t, server)
	waitSubscribers(t, hub, 1)

	conn.Close()
	waitSubscribers(t, hub, 0)
}

func TestHub_Close(t *testing.T) {
	hub, server := newTestHub(t)

	conn := dial(t, server)
	waitSubscribers(t, hub, 1)

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected read error after hub close")
	}
	if hub.Subscribers() != 0 {
		t.Errorf("subscribers after close = %d", hub.Subscribers())
	}
}
