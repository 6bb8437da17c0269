// Package events publishes terminal job transitions to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pastmatters/internal/verification/models"
)

// DefaultPublishTimeout bounds one synchronous produce.
const DefaultPublishTimeout = 5 * time.Second

// Producer writes one keyed record.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// KafkaPublisher encodes job events as JSON keyed by job id, so every event
// for one job lands on the same partition.
type KafkaPublisher struct {
	producer Producer
	timeout  time.Duration
}

type Option func(*KafkaPublisher)

func WithTimeout(d time.Duration) Option {
	return func(p *KafkaPublisher) {
		p.timeout = d
	}
}

func NewKafkaPublisher(producer Producer, opts ...Option) *KafkaPublisher {
	p := &KafkaPublisher{producer: producer, timeout: DefaultPublishTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.JobEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode job event: %w", err)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.producer.Produce(ctx, []byte(event.JobID.String()), value); err != nil {
		return fmt.Errorf("publish job event %s: %w", event.JobID, err)
	}
	return nil
}
