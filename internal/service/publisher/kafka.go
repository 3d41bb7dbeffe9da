// Package publisher pushes computed signals onto the Kafka bus for
// downstream consumers (alerting, dashboards). Optional: when disabled the
// stored rows are the only output.
package publisher

import (
	"context"
	"fmt"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/pkg/kafka"
)

// KafkaPublisher publishes signals keyed by symbol so one symbol's signals
// stay ordered within a partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher creates the Kafka-backed signal publisher.
func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishSignal(ctx context.Context, sig *models.DivergenceSignal) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), sig); err != nil {
		return fmt.Errorf("publish signal for %s: %w", sig.Symbol, err)
	}
	return nil
}

// Close flushes and closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
