package messaging

import (
	"context"
	"log/slog"
	"sync"

	contractsv1 "caravel/contracts/gen/events/v1"
)

// Kafka is the event bus adapter the outbox relay publishes through.
// Current implementation is an in-process topic log while runtime wiring is
// finalized for external brokers; Published exposes the log for inspection.
type Kafka struct {
	mu        sync.RWMutex
	published map[string][]contractsv1.Envelope
	logger    *slog.Logger
}

func NewKafka(_ []string, logger *slog.Logger) (*Kafka, error) {
	return &Kafka{
		published: make(map[string][]contractsv1.Envelope),
		logger:    logger,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	k.published[topic] = append(k.published[topic], event)
	k.mu.Unlock()

	if k.logger != nil {
		k.logger.Info("event published",
			"event", "kafka_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
	}
	return nil
}

// Published returns the envelopes recorded for a topic in publish order.
func (k *Kafka) Published(topic string) []contractsv1.Envelope {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]contractsv1.Envelope(nil), k.published[topic]...)
}
