package channel

import (
	"context"

	"github.com/tibiantis-tools/deathwatch/internal/logging"
)

// Message is one prior message in the notification channel, as much of it
// as the replace-in-place protocol needs.
type Message struct {
	ID       string
	Content  string
	FromSelf bool
}

// Channel is a notification target that supports the replace-in-place
// report protocol: publish a message, list a bounded window of recent
// messages, delete one by id. Delivery is best-effort; there are no
// retries or read receipts.
type Channel interface {
	Send(ctx context.Context, content string) error
	Recent(ctx context.Context, limit int) ([]Message, error)
	Delete(ctx context.Context, messageID string) error
	Type() string
}

// LogChannel writes reports to the log instead of a live channel
// (for local runs and debugging). It keeps no history, so every publish
// behaves like the first.
type LogChannel struct {
	log *logging.Logger
}

// NewLogChannel creates a log-backed notification channel.
func NewLogChannel(log *logging.Logger) *LogChannel {
	return &LogChannel{log: log}
}

func (l *LogChannel) Type() string { return "log" }

func (l *LogChannel) Send(ctx context.Context, content string) error {
	l.log.Info("report", "content", content)
	return nil
}

func (l *LogChannel) Recent(ctx context.Context, limit int) ([]Message, error) {
	return nil, nil
}

func (l *LogChannel) Delete(ctx context.Context, messageID string) error {
	return nil
}
