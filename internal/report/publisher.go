package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/tibiantis-tools/deathwatch/internal/channel"
	"github.com/tibiantis-tools/deathwatch/internal/logging"
	"github.com/tibiantis-tools/deathwatch/internal/metrics"
)

// scanLimit bounds the history scan used to find the previous report.
// The marker scan is a heuristic, not a unique handle: a report pushed
// more than scanLimit messages deep is never cleaned up.
const scanLimit = 50

// Publisher republishes reports with replace-in-place semantics: delete
// whatever prior report carries the same marker, then send the new one.
type Publisher struct {
	ch  channel.Channel
	log *logging.Logger
}

// NewPublisher creates a publisher over the given notification channel.
func NewPublisher(ch channel.Channel, log *logging.Logger) *Publisher {
	return &Publisher{ch: ch, log: log}
}

// Publish removes the previous report bearing the marker and sends body as
// a single new message. Delete failures (permissions, races) are logged
// and do not stop the publish; listing failures are tolerated the same
// way so a degraded channel still receives reports.
func (p *Publisher) Publish(ctx context.Context, marker, body string) error {
	messages, err := p.ch.Recent(ctx, scanLimit)
	if err != nil {
		p.log.Warn("failed to list channel history, publishing without cleanup",
			logging.Channel(p.ch.Type()), logging.Error(err))
	}

	for _, msg := range messages {
		if !msg.FromSelf || !strings.Contains(msg.Content, marker) {
			continue
		}
		if err := p.ch.Delete(ctx, msg.ID); err != nil {
			metrics.ReportDeleteErrors.Inc()
			p.log.Warn("failed to delete previous report",
				logging.Channel(p.ch.Type()), logging.Error(err))
			continue
		}
		p.log.Debug("deleted previous report", "message_id", msg.ID)
	}

	if err := p.ch.Send(ctx, body); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}
