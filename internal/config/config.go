package config

import "time"

// Config is the root configuration for the tracker.
type Config struct {
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Criteria    CriteriaConfig    `yaml:"criteria"`
	Poll        PollConfig        `yaml:"poll"`
	History     HistoryConfig     `yaml:"history"`
	Notify      NotifyConfig      `yaml:"notify"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// MarketplaceConfig holds the listings API settings.
type MarketplaceConfig struct {
	BaseURL      string        `yaml:"base_url"`
	ProductionID string        `yaml:"production_id"`
	EventURL     string        `yaml:"event_url"` // Event page used to build purchase links
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   *int          `yaml:"max_retries"` // Unset means DefaultMaxRetries; 0 disables retries
}

// Retries returns the configured retry count, or DefaultMaxRetries when unset.
func (c MarketplaceConfig) Retries() int {
	if c.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *c.MaxRetries
}

// CriteriaConfig selects which listings are tracked.
type CriteriaConfig struct {
	MaxPrice         string   `yaml:"max_price"` // Decimal, inclusive, compared to the all-in price
	RequiredQuantity int      `yaml:"required_quantity"`
	Sections         []string `yaml:"sections"` // "312" or inclusive ranges like "305-314"
}

// PollConfig holds poll loop timing.
type PollConfig struct {
	Interval      time.Duration `yaml:"interval"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// HistoryConfig selects and configures the price history backend.
type HistoryConfig struct {
	Backend  string   `yaml:"backend"` // "csv" or "postgres"
	Path     string   `yaml:"path"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
// URL, when set, is used verbatim and the discrete fields are ignored.
type DBConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// NotifyConfig holds price change notification channels.
// A channel with no credentials is disabled.
type NotifyConfig struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// DiscordConfig holds the Discord webhook target.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// TelegramConfig holds the Telegram bot credentials.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// ServerConfig holds the health, metrics and feed HTTP server settings.
type ServerConfig struct {
	Disabled    bool   `yaml:"disabled"`
	Port        int    `yaml:"port"`
	HealthPath  string `yaml:"health_path"`
	MetricsPath string `yaml:"metrics_path"`
	FeedPath    string `yaml:"feed_path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
