// feedtail connects to a running tracker's WebSocket feed and prints
// results to the console as they arrive.
// Usage: go run ./cmd/feedtail --url ws://localhost:8080/feed
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/rickgao/ticket-tracker/internal/display"
	"github.com/rickgao/ticket-tracker/internal/feed"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/feed", "tracker feed URL")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Headings show the criteria of the tracker, which the feed does not carry.
	printer := display.NewPrinter(os.Stdout, decimal.Zero, 0)
	client := feed.NewClient(feed.DefaultClientConfig(*url), logger)

	logger.Info("streaming started - press Ctrl+C to stop", "url", *url)

	err := client.Run(ctx, func(msg feed.Message) {
		if err := render(os.Stdout, printer, msg, *verbose); err != nil {
			logger.Warn("cannot render message", "type", msg.Type, "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("feed stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// render prints one feed message.
func render(w io.Writer, r display.Reporter, msg feed.Message, verbose bool) error {
	if verbose {
		data, _ := json.MarshalIndent(msg, "", "  ")
		fmt.Fprintf(w, "[%s] %s\n", msg.Type, data)
		return nil
	}

	switch msg.Type {
	case feed.TypeEvent:
		e, err := msg.Event()
		if err != nil {
			return err
		}
		r.Event(e)
	case feed.TypeResults:
		listings, err := msg.Listings()
		if err != nil {
			return err
		}
		r.Results(listings)
	case feed.TypeChanges:
		updates, err := msg.Updates()
		if err != nil {
			return err
		}
		r.Changes(updates)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}
