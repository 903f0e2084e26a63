package main

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/rickgao/ticket-tracker/internal/config"
	"github.com/rickgao/ticket-tracker/internal/feed"
	"github.com/rickgao/ticket-tracker/internal/metrics"
	"github.com/rickgao/ticket-tracker/internal/notify"
)

// newLogger builds the process logger. The level has already been validated.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// buildNotifier returns a notifier for every configured channel, or
// notify.Nop when none is configured.
func buildNotifier(cfg config.NotifyConfig, logger *slog.Logger, tgOpts ...notify.TelegramOption) (notify.Notifier, error) {
	var multi notify.Multi

	if cfg.Discord.WebhookURL != "" {
		multi = append(multi, notify.NewDiscord(cfg.Discord.WebhookURL, nil))
		logger.Info("discord notifications enabled")
	}

	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, tgOpts...)
		if err != nil {
			return nil, err
		}
		multi = append(multi, tg)
		logger.Info("telegram notifications enabled", "chat_id", cfg.Telegram.ChatID)
	}

	if len(multi) == 0 {
		logger.Warn("no notification channel configured, price changes will only be logged")
		return notify.Nop{}, nil
	}
	return multi, nil
}

// newMux routes the health, metrics and feed endpoints.
func newMux(cfg config.ServerConfig, health *metrics.HealthChecker, m *metrics.Metrics, hub *feed.Hub) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(cfg.HealthPath, health)
	mux.Handle(cfg.MetricsPath, m.Handler())
	mux.Handle(cfg.FeedPath, hub)
	return mux
}
