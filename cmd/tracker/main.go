// tracker watches a marketplace production for ticket price changes.
// Usage: go run ./cmd/tracker --config configs/tracker.example.yaml
//
// Optional environment variables:
//
//	DISCORD_WEBHOOK_URL  - Discord webhook used when the config leaves it empty
//	TRACKER_HISTORY_PATH - Overrides history.path
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/ticket-tracker/internal/api"
	"github.com/rickgao/ticket-tracker/internal/config"
	"github.com/rickgao/ticket-tracker/internal/display"
	"github.com/rickgao/ticket-tracker/internal/feed"
	"github.com/rickgao/ticket-tracker/internal/history"
	"github.com/rickgao/ticket-tracker/internal/listing"
	"github.com/rickgao/ticket-tracker/internal/metrics"
	"github.com/rickgao/ticket-tracker/internal/poller"
	"github.com/rickgao/ticket-tracker/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults only when empty)")
	envPath := flag.String("env", ".env", "path to optional .env file")
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := newLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting tracker",
		"version", version.String(),
		"config", *configPath,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *once, logger); err != nil {
		logger.Error("tracker failed", "error", err)
		os.Exit(1)
	}

	logger.Info("tracker stopped")
}

func run(ctx context.Context, cfg *config.Config, once bool, logger *slog.Logger) error {
	maxPrice, err := cfg.Criteria.MaxPriceDecimal()
	if err != nil {
		return err
	}
	criteria, err := listing.NewCriteria(maxPrice, cfg.Criteria.RequiredQuantity, cfg.Criteria.Sections)
	if err != nil {
		return fmt.Errorf("criteria: %w", err)
	}

	store, err := history.Open(ctx, cfg.History, logger)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	logger.Info("configuration loaded",
		"production_id", cfg.Marketplace.ProductionID,
		"max_price", maxPrice.String(),
		"quantity", criteria.Quantity,
		"sections", criteria.SectionList(),
		"history_backend", cfg.History.Backend,
	)

	client := api.NewClient(
		cfg.Marketplace.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Marketplace.Timeout),
		api.WithRetries(cfg.Marketplace.Retries(), time.Second),
		api.WithUserAgent(cfg.Marketplace.UserAgent),
	)

	notifier, err := buildNotifier(cfg.Notify, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	hub := feed.NewHub(feed.DefaultHubConfig(), logger)
	defer hub.Close()
	m.RegisterFeedSubscribers(hub.Subscribers)

	reporter := display.Tee{
		display.NewPrinter(os.Stdout, maxPrice, cfg.Criteria.RequiredQuantity),
		hub,
	}

	p := poller.New(poller.Config{
		ProductionID:  cfg.Marketplace.ProductionID,
		Interval:      cfg.Poll.Interval,
		RetryInterval: cfg.Poll.RetryInterval,
		Parse: listing.ParseOptions{
			EventURL:     cfg.Marketplace.EventURL,
			ProductionID: cfg.Marketplace.ProductionID,
			Quantity:     cfg.Criteria.RequiredQuantity,
		},
		Criteria: criteria,
	}, client, store, logger,
		poller.WithNotifier(notifier),
		poller.WithReporter(reporter),
		poller.WithMetrics(m),
	)

	if once {
		_, err := p.RunCycle(ctx)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := p.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if !cfg.Server.Disabled {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newMux(cfg.Server, metrics.NewHealthChecker(store, p.Status), m, hub),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting http server",
				"port", cfg.Server.Port,
				"health", cfg.Server.HealthPath,
				"metrics", cfg.Server.MetricsPath,
				"feed", cfg.Server.FeedPath,
			)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			hub.Close()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
