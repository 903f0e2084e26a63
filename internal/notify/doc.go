// Package notify delivers price change alerts.
//
// Channels:
//   - Discord: webhook POST with a single embed
//   - Telegram: sendMessage through the Bot API
//
// Delivery is best effort. Callers log and count failures; a failed alert
// never stops price history from being recorded.
package notify
