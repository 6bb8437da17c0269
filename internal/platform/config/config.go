package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Job store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	JobStore    string
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	Worker      WorkerConfig
	Upload      UploadConfig
	Evidence    EvidenceConfig
}

// RedisConfig configures the shared go-redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the job lifecycle event producer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// WorkerConfig bounds concurrent job runs.
type WorkerConfig struct {
	Concurrency int
	QueueSize   int
}

// UploadConfig controls photo uploads.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// EvidenceConfig points collectors at their upstream services.
type EvidenceConfig struct {
	SourceURL       string
	PhotoServiceURL string
	CatalogPath     string
	Timeout         time.Duration
	RatePerSec      float64
	Burst           int
	CacheTTL        time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []error

	cfg := Server{
		Addr:            getenv("PAST_MATTERS_ADDR", ":8080"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
		ShutdownTimeout: durationEnv("SHUTDOWN_TIMEOUT", 30*time.Second, &errs),
		JobStore:        strings.ToLower(getenv("JOB_STORE", StoreMemory)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_JOB_TOPIC", "verification.jobs"),
		},
		Worker: WorkerConfig{
			Concurrency: intEnv("WORKER_CONCURRENCY", 4, &errs),
			QueueSize:   intEnv("WORKER_QUEUE_SIZE", 64, &errs),
		},
		Upload: UploadConfig{
			Dir:      getenv("UPLOAD_DIR", "uploads"),
			MaxBytes: int64(intEnv("MAX_UPLOAD_BYTES", 10<<20, &errs)),
		},
		Evidence: EvidenceConfig{
			SourceURL:       strings.TrimRight(os.Getenv("EVIDENCE_SOURCE_URL"), "/"),
			PhotoServiceURL: strings.TrimRight(os.Getenv("PHOTO_SERVICE_URL"), "/"),
			CatalogPath:     os.Getenv("PLATFORM_CATALOG_PATH"),
			Timeout:         durationEnv("COLLECTOR_TIMEOUT", 30*time.Second, &errs),
			RatePerSec:      floatEnv("COLLECTOR_RATE_PER_SEC", 10, &errs),
			Burst:           intEnv("COLLECTOR_BURST", 5, &errs),
			CacheTTL:        durationEnv("EVIDENCE_CACHE_TTL", 5*time.Minute, &errs),
		},
	}

	if err := errors.Join(errs...); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects inconsistent combinations.
func (s Server) Validate() error {
	switch s.JobStore {
	case StoreMemory:
	case StorePostgres:
		if s.DatabaseURL == "" {
			return errors.New("JOB_STORE=postgres requires DATABASE_URL")
		}
	case StoreRedis:
		if s.Redis.URL == "" {
			return errors.New("JOB_STORE=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown JOB_STORE %q", s.JobStore)
	}
	if s.Worker.Concurrency < 1 {
		return errors.New("WORKER_CONCURRENCY must be at least 1")
	}
	if s.Worker.QueueSize < 0 {
		return errors.New("WORKER_QUEUE_SIZE must not be negative")
	}
	if s.Upload.MaxBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if s.Evidence.RatePerSec <= 0 || s.Evidence.Burst < 1 {
		return errors.New("COLLECTOR_RATE_PER_SEC and COLLECTOR_BURST must be positive")
	}
	if s.Kafka.Enabled() && s.Kafka.Topic == "" {
		return errors.New("KAFKA_JOB_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int, errs *[]error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func floatEnv(key string, fallback float64, errs *[]error) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
