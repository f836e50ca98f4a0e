package messaging

import (
	"context"
	"log/slog"

	"github.com/strokeguard/strokeguard/pkg/events"
	"github.com/strokeguard/strokeguard/pkg/kafka"
)

// Producer is implemented by *kafka.Producer.
type Producer interface {
	Publish(ctx context.Context, topic string, messages ...kafka.Message) error
}

// KafkaPublisher implements events.Publisher by writing outbox entries to one topic,
// keyed by aggregate ID so an assessment's events stay ordered within a partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

var _ events.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a new Kafka event publisher.
func NewKafkaPublisher(producer Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// PublishEntries sends the entries as a single batch.
func (p *KafkaPublisher) PublishEntries(ctx context.Context, entries ...events.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, kafka.Message{
			Key:   []byte(e.AggregateID.String()),
			Value: e.Payload,
			Headers: map[string]string{
				"content-type":   "application/json",
				"event_id":       e.ID.String(),
				"event_type":     e.EventType,
				"aggregate_type": e.AggregateType,
				"tenant_id":      e.TenantID.String(),
			},
		})
		p.logger.Debug("publishing event",
			slog.String("event_type", e.EventType),
			slog.String("event_id", e.ID.String()),
			slog.String("topic", p.topic),
		)
	}

	return p.producer.Publish(ctx, p.topic, messages...)
}
