package feed

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/model"
)

func TestClient_ReceivesBroadcasts(t *testing.T) {
	hub, server := newTestHub(t)
	hub.Event(model.Event{ProductionID: "1", Name: "Test Event", Venue: "Arena"})

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client := NewClient(DefaultClientConfig(url), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		msgs []Message
	)
	done := make(chan error, 1)
	go func() {
		done <- client.Run(ctx, func(m Message) {
			mu.Lock()
			msgs = append(msgs, m)
			mu.Unlock()
		})
	}()

	waitSubscribers(t, hub, 1)
	hub.Changes([]model.PriceUpdate{{
		ListingID:     "L-1",
		Section:       "312",
		Row:           "5",
		PreviousPrice: decimal.NewFromInt(200),
		CurrentPrice:  decimal.NewFromInt(180),
		Change:        decimal.NewFromInt(-20),
	}})

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(msgs)
		mu.Unlock()
		if n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("received %d messages, want 2", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	evt, err := msgs[0].Event()
	if err != nil || evt.Name != "Test Event" {
		t.Errorf("Event() = %+v, %v", evt, err)
	}
	updates, err := msgs[1].Updates()
	if err != nil || len(updates) != 1 || !updates[0].Change.Equal(decimal.NewFromInt(-20)) {
		t.Errorf("Updates() = %+v, %v", updates, err)
	}
	if _, err := msgs[1].Listings(); err == nil {
		t.Error("Listings() on a changes message should fail")
	}
}

func TestClient_ReconnectsWithBackoff(t *testing.T) {
	cfg := ClientConfig{
		URL:               "ws://127.0.0.1:1/feed",
		HandshakeTimeout:  100 * time.Millisecond,
		ReconnectBaseWait: 10 * time.Millisecond,
		ReconnectMaxWait:  20 * time.Millisecond,
	}
	client := NewClient(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := client.Run(ctx, func(Message) { t.Error("no messages expected") })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run = %v, want deadline exceeded", err)
	}
}

func TestMessageListings(t *testing.T) {
	hub := NewHub(DefaultHubConfig(), nil)
	data := hub.encode(TypeResults, toListings([]model.Listing{{
		ID:         "L-1",
		Section:    "312",
		BasePrice:  decimal.NewFromInt(150),
		TotalPrice: decimal.NewFromInt(180),
	}}))

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	listings, err := msg.Listings()
	if err != nil {
		t.Fatalf("Listings() failed: %v", err)
	}
	if len(listings) != 1 || !listings[0].Fees().Equal(decimal.NewFromInt(30)) {
		t.Errorf("listings = %+v", listings)
	}
}
