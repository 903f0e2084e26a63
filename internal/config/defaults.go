package config

import (
	"time"

	"github.com/rickgao/ticket-tracker/internal/version"
)

// Default values for optional configuration fields.
const (
	DefaultBaseURL        = "https://www.vividseats.com/hermes/api/v1"
	DefaultProductionID   = "5471078"
	DefaultEventURL       = "https://www.vividseats.com/new-england-patriots-tickets-gillette-stadium-3-6-2026--sports-nfl-football"
	DefaultUserAgent      = version.DefaultUserAgent
	DefaultAPITimeout     = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultMaxPrice       = "350"
	DefaultQuantity       = 4
	DefaultPollInterval   = 1 * time.Hour
	DefaultRetryInterval  = 5 * time.Minute
	DefaultHistoryBackend = BackendCSV
	DefaultHistoryPath    = "ticket_price_history.csv"
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 4
	DefaultMinConns       = 1
	DefaultServerPort     = 8080
	DefaultHealthPath     = "/health"
	DefaultMetricsPath    = "/metrics"
	DefaultFeedPath       = "/feed"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// History backends.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// DefaultSections are the sections tracked when none are configured.
var DefaultSections = []string{"305-314", "327-336"}

func (c *Config) applyDefaults() {
	// Marketplace defaults
	if c.Marketplace.BaseURL == "" {
		c.Marketplace.BaseURL = DefaultBaseURL
	}
	if c.Marketplace.ProductionID == "" {
		c.Marketplace.ProductionID = DefaultProductionID
	}
	if c.Marketplace.EventURL == "" {
		c.Marketplace.EventURL = DefaultEventURL
	}
	if c.Marketplace.Timeout == 0 {
		c.Marketplace.Timeout = DefaultAPITimeout
	}
	if c.Marketplace.UserAgent == "" {
		c.Marketplace.UserAgent = DefaultUserAgent
	}
	if c.Marketplace.MaxRetries == nil {
		retries := DefaultMaxRetries
		c.Marketplace.MaxRetries = &retries
	}

	// Criteria defaults
	if c.Criteria.MaxPrice == "" {
		c.Criteria.MaxPrice = DefaultMaxPrice
	}
	if c.Criteria.RequiredQuantity == 0 {
		c.Criteria.RequiredQuantity = DefaultQuantity
	}
	if len(c.Criteria.Sections) == 0 {
		c.Criteria.Sections = append([]string(nil), DefaultSections...)
	}

	// Poll defaults
	if c.Poll.Interval == 0 {
		c.Poll.Interval = DefaultPollInterval
	}
	if c.Poll.RetryInterval == 0 {
		c.Poll.RetryInterval = DefaultRetryInterval
	}

	// History defaults
	if c.History.Backend == "" {
		c.History.Backend = DefaultHistoryBackend
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
	applyDBDefaults(&c.History.Postgres)

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.HealthPath == "" {
		c.Server.HealthPath = DefaultHealthPath
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	if c.Server.FeedPath == "" {
		c.Server.FeedPath = DefaultFeedPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
