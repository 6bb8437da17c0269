package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastmatters/internal/verification/models"
	"pastmatters/pkg/domain"
)

type captureProducer struct {
	key, value  []byte
	hasDeadline bool
	err         error
}

func (c *captureProducer) Produce(ctx context.Context, key, value []byte) error {
	c.key, c.value = key, value
	_, c.hasDeadline = ctx.Deadline()
	return c.err
}

func TestPublishEncodesEvent(t *testing.T) {
	producer := &captureProducer{}
	pub := NewKafkaPublisher(producer)

	score := 47
	ev := models.JobEvent{
		JobID:        domain.NewJobID(),
		Status:       models.StatusCompleted,
		RiskCategory: models.RiskHigh,
		OverallScore: &score,
		OccurredAt:   time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), ev))

	assert.Equal(t, ev.JobID.String(), string(producer.key))
	assert.True(t, producer.hasDeadline)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(producer.value, &decoded))
	assert.Equal(t, ev.JobID.String(), decoded["job_id"])
	assert.Equal(t, "completed", decoded["status"])
	assert.Equal(t, "high", decoded["risk_category"])
	assert.Equal(t, float64(47), decoded["overall_score"])
	assert.NotContains(t, decoded, "error")
}

func TestPublishWrapsProducerError(t *testing.T) {
	cause := errors.New("not enough replicas")
	pub := NewKafkaPublisher(&captureProducer{err: cause}, WithTimeout(0))

	err := pub.Publish(context.Background(), models.JobEvent{JobID: domain.NewJobID(), Status: models.StatusFailed, Error: "boom"})
	assert.ErrorIs(t, err, cause)
}
