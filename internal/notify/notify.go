package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rickgao/ticket-tracker/internal/model"
)

// PriceChangeTitle heads every price change alert.
const PriceChangeTitle = "🎫 Ticket Price Change!"

// Message is a channel-agnostic alert.
type Message struct {
	Title string
	Body  string
	URL   string
}

// Notifier sends a Message to one or more channels.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Error reports a failed delivery on one channel.
type Error struct {
	Channel string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Channel, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PriceChangeMessage renders an update as an alert.
func PriceChangeMessage(u model.PriceUpdate) Message {
	return Message{
		Title: PriceChangeTitle,
		Body: fmt.Sprintf("Section %s, Row %s\nPrice has %s by $%s\nNew price: $%s",
			u.Section, u.Row, u.Direction(), u.Change.Abs().StringFixed(2), u.CurrentPrice.StringFixed(2)),
		URL: u.URL,
	}
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier. Every channel is attempted even if an
// earlier one fails.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every message.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Message) error { return nil }
