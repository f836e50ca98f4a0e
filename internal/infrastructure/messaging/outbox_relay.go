package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/strokeguard/strokeguard/pkg/events"
)

const defaultBatchSize = 100

// OutboxRelay polls the outbox and publishes unpublished entries. Delivery is
// at-least-once: entries are marked only after the broker acknowledges them.
type OutboxRelay struct {
	reader    events.OutboxReader
	publisher events.Publisher
	logger    *slog.Logger
	published metric.Int64Counter
	failures  metric.Int64Counter
	interval  time.Duration
	batchSize int
}

// NewOutboxRelay creates a relay polling every interval.
func NewOutboxRelay(
	reader events.OutboxReader,
	publisher events.Publisher,
	interval time.Duration,
	meter metric.Meter,
	logger *slog.Logger,
) (*OutboxRelay, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("outbox poll interval must be positive, got %s", interval)
	}
	published, err := meter.Int64Counter("strokeguard.outbox.published",
		metric.WithDescription("Outbox entries delivered to the broker."))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("strokeguard.outbox.failures",
		metric.WithDescription("Failed outbox relay iterations, by stage."))
	if err != nil {
		return nil, err
	}
	return &OutboxRelay{
		reader:    reader,
		publisher: publisher,
		logger:    logger,
		published: published,
		failures:  failures,
		interval:  interval,
		batchSize: defaultBatchSize,
	}, nil
}

// Run relays until ctx is cancelled. Errors are logged and retried on the next tick.
func (r *OutboxRelay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay started", slog.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		for {
			n, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.Error("outbox relay failed", "error", err)
				break
			}
			// A full batch means more may be waiting.
			if n < r.batchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and returns the number of entries delivered.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.reader.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "fetch")))
		return 0, fmt.Errorf("fetching outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := r.publisher.PublishEntries(ctx, entries...); err != nil {
		r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "publish")))
		return 0, fmt.Errorf("publishing %d outbox entries: %w", len(entries), err)
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := r.reader.MarkPublished(ctx, ids); err != nil {
		r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "mark")))
		return 0, fmt.Errorf("marking outbox entries published: %w", err)
	}

	r.published.Add(ctx, int64(len(entries)))
	r.logger.Debug("outbox entries relayed", slog.Int("count", len(entries)))
	return len(entries), nil
}
