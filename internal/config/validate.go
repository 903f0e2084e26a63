package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Marketplace.BaseURL == "" {
		return errors.New("marketplace.base_url is required")
	}
	if c.Marketplace.ProductionID == "" {
		return errors.New("marketplace.production_id is required")
	}
	if c.Marketplace.EventURL == "" {
		return errors.New("marketplace.event_url is required")
	}
	if c.Marketplace.Timeout <= 0 {
		return errors.New("marketplace.timeout must be > 0")
	}
	if c.Marketplace.Retries() < 0 {
		return errors.New("marketplace.max_retries must be >= 0")
	}

	if _, err := c.Criteria.MaxPriceDecimal(); err != nil {
		return err
	}
	if c.Criteria.RequiredQuantity < 1 {
		return errors.New("criteria.required_quantity must be >= 1")
	}
	if len(c.Criteria.Sections) == 0 {
		return errors.New("criteria.sections must not be empty")
	}

	if c.Poll.Interval <= 0 {
		return errors.New("poll.interval must be > 0")
	}
	if c.Poll.RetryInterval <= 0 {
		return errors.New("poll.retry_interval must be > 0")
	}

	switch c.History.Backend {
	case BackendCSV:
		if c.History.Path == "" {
			return errors.New("history.path is required")
		}
	case BackendPostgres:
		if err := c.History.Postgres.validate("history.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("history.backend must be %q or %q, got %q", BackendCSV, BackendPostgres, c.History.Backend)
	}

	if c.Notify.Telegram.BotToken != "" && c.Notify.Telegram.ChatID == 0 {
		return errors.New("notify.telegram.chat_id is required when bot_token is set")
	}

	if !c.Server.Disabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}

	return nil
}

// MaxPriceDecimal parses the configured price cap.
func (c CriteriaConfig) MaxPriceDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.MaxPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("criteria.max_price %q is not a number", c.MaxPrice)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("criteria.max_price must be >= 0, got %s", d)
	}
	return d, nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", l.Level)
}

func (db *DBConfig) validate(prefix string) error {
	if db.URL == "" {
		if db.Host == "" {
			return fmt.Errorf("%s.host is required", prefix)
		}
		if db.Name == "" {
			return fmt.Errorf("%s.name is required", prefix)
		}
		if db.User == "" {
			return fmt.Errorf("%s.user is required", prefix)
		}
		if db.Password == "" {
			return fmt.Errorf("%s.password is required", prefix)
		}
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
