package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"PAST_MATTERS_ADDR", "JOB_STORE", "WORKER_CONCURRENCY", "WORKER_QUEUE_SIZE",
		"KAFKA_BROKERS", "MAX_UPLOAD_BYTES", "COLLECTOR_TIMEOUT", "EVIDENCE_SOURCE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreMemory, cfg.JobStore)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 64, cfg.Worker.QueueSize)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 30*time.Second, cfg.Evidence.Timeout)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JOB_STORE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092 ,")
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("EVIDENCE_SOURCE_URL", "http://evidence.local/")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StoreRedis, cfg.JobStore)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.Equal(t, "http://evidence.local", cfg.Evidence.SourceURL)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Run("malformed number", func(t *testing.T) {
		t.Setenv("WORKER_CONCURRENCY", "many")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "WORKER_CONCURRENCY")
	})

	t.Run("postgres without DATABASE_URL", func(t *testing.T) {
		t.Setenv("JOB_STORE", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("JOB_STORE", "mongo")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "unknown JOB_STORE")
	})
}
