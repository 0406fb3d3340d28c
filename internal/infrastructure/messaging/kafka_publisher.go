package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/FONAR-bit/fonar-project/pkg/events"
	"github.com/FONAR-bit/fonar-project/pkg/kafka"
)

// KafkaEventPublisher implements port.EventPublisher by writing domain events
// to a single fund events topic, keyed by aggregate ID so events of one
// aggregate stay ordered within a partition.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *slog.Logger
}

// NewKafkaEventPublisher creates a publisher on top of the shared producer.
func NewKafkaEventPublisher(producer *kafka.Producer, topic string, logger *slog.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish serialises and sends the events.
func (p *KafkaEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.EventType(), err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(evt.AggregateID().String()),
			Value: payload,
			Headers: map[string]string{
				"event_type":     evt.EventType(),
				"aggregate_type": evt.AggregateType(),
			},
		})

		p.logger.Debug("publishing domain event",
			"event_type", evt.EventType(),
			"aggregate_id", evt.AggregateID(),
			"topic", p.topic,
		)
	}

	return p.producer.Publish(ctx, p.topic, messages...)
}

// Close releases the underlying producer.
func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
