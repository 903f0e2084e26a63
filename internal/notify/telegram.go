package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const channelTelegram = "telegram"

// Telegram sends alerts to a single chat through a bot.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// TelegramOption configures a Telegram notifier.
type TelegramOption func(*telegramOptions)

type telegramOptions struct {
	endpoint   string
	httpClient *http.Client
}

// WithTelegramEndpoint overrides the Bot API endpoint format
// (default tgbotapi.APIEndpoint).
func WithTelegramEndpoint(endpoint string) TelegramOption {
	return func(o *telegramOptions) {
		o.endpoint = endpoint
	}
}

// WithTelegramHTTPClient sets the HTTP client used for Bot API calls.
func WithTelegramHTTPClient(c *http.Client) TelegramOption {
	return func(o *telegramOptions) {
		o.httpClient = c
	}
}

// NewTelegram authenticates the bot (getMe) and returns a notifier for chatID.
func NewTelegram(token string, chatID int64, opts ...TelegramOption) (*Telegram, error) {
	o := telegramOptions{
		endpoint:   tgbotapi.APIEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.httpClient)
	if err != nil {
		return nil, &Error{Channel: channelTelegram, Err: fmt.Errorf("authorize bot: %w", err)}
	}

	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Notify implements Notifier. The Bot API client has no context support,
// so cancellation is only checked before sending.
func (t *Telegram) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return &Error{Channel: channelTelegram, Err: err}
	}

	m := tgbotapi.NewMessage(t.chatID, telegramText(msg))
	m.DisableWebPagePreview = true

	if _, err := t.bot.Send(m); err != nil {
		return &Error{Channel: channelTelegram, Err: fmt.Errorf("send message: %w", err)}
	}
	return nil
}

func telegramText(msg Message) string {
	parts := []string{msg.Title, msg.Body}
	if msg.URL != "" {
		parts = append(parts, msg.URL)
	}
	return strings.Join(parts, "\n")
}
