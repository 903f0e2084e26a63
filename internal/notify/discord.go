package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DiscordColor is the embed accent color.
const DiscordColor = 0x03b2f8

const channelDiscord = "discord"

type discordPayload struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Discord posts alerts to a webhook.
type Discord struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscord creates a Discord notifier. A nil client gets a 10s timeout.
func NewDiscord(webhookURL string, httpClient *http.Client) *Discord {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Discord{webhookURL: webhookURL, httpClient: httpClient}
}

// Notify implements Notifier.
func (d *Discord) Notify(ctx context.Context, msg Message) error {
	embed := discordEmbed{
		Title:       msg.Title,
		Description: msg.Body,
		Color:       DiscordColor,
	}
	if msg.URL != "" {
		embed.Fields = []discordField{{Name: "Purchase Link", Value: msg.URL}}
	}

	body, err := json.Marshal(discordPayload{Embeds: []discordEmbed{embed}})
	if err != nil {
		return &Error{Channel: channelDiscord, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return &Error{Channel: channelDiscord, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return &Error{Channel: channelDiscord, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Channel: channelDiscord, Err: fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))}
	}

	return nil
}
