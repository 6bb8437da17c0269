package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"pastmatters/internal/evidence/cache"
	"pastmatters/internal/evidence/httpsource"
	"pastmatters/internal/platform/config"
	"pastmatters/internal/platform/kafka"
	"pastmatters/internal/platform/postgres"
	platformredis "pastmatters/internal/platform/redis"
	"pastmatters/internal/verification/events"
	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/orchestrator"
	"pastmatters/internal/verification/ports"
	"pastmatters/internal/verification/store/memory"
	pgstore "pastmatters/internal/verification/store/postgres"
	redisstore "pastmatters/internal/verification/store/redis"
)

// infra holds the long-lived connections main must close.
type infra struct {
	store     ports.JobStore
	publisher ports.EventPublisher
	redis     *platformredis.Client
	db        *sql.DB
	producer  *kafka.Producer
	logger    *slog.Logger
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *infra, err error) {
	i := &infra{publisher: ports.NopPublisher{}, logger: log}
	defer func() {
		if err != nil {
			i.Close(ctx)
		}
	}()

	if i.redis, err = platformredis.New(ctx, cfg.Redis); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	switch cfg.JobStore {
	case config.StorePostgres:
		if i.db, err = postgres.Open(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		if err = postgres.Migrate(ctx, i.db, log); err != nil {
			return nil, err
		}
		i.store = pgstore.New(i.db)
	case config.StoreRedis:
		if i.redis == nil {
			return nil, fmt.Errorf("job store %q needs REDIS_URL", cfg.JobStore)
		}
		i.store = redisstore.New(i.redis.Client)
	default:
		i.store = memory.NewInMemoryStore()
	}

	if cfg.Kafka.Enabled() {
		if i.producer, err = kafka.NewProducer(ctx, cfg.Kafka, log); err != nil {
			return nil, err
		}
		i.publisher = events.NewKafkaPublisher(i.producer)
	}
	return i, nil
}

// Close releases connections in reverse order of acquisition.
func (i *infra) Close(ctx context.Context) {
	if i.producer != nil {
		i.producer.Close(ctx)
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			i.logger.Warn("close database", "error", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			i.logger.Warn("close redis", "error", err)
		}
	}
}

// buildCollectors points every evidence source at the configured upstream.
// Without one the orchestrator finds nothing and every search still completes.
func buildCollectors(cfg config.EvidenceConfig, rc *platformredis.Client, log *slog.Logger) orchestrator.Collectors {
	if cfg.SourceURL == "" {
		log.Warn("EVIDENCE_SOURCE_URL not set, collectors return no records")
		return orchestrator.Collectors{}
	}
	client := httpsource.NewClient(cfg.SourceURL,
		httpsource.WithLogger(log),
		httpsource.WithRateLimit(cfg.RatePerSec, cfg.Burst),
		httpsource.WithTimeout(cfg.Timeout),
	)
	profiles := func(kind string, source models.SourceKind) ports.ProfileCollector {
		c := httpsource.NewCollector[models.ProfileRecord](client, kind, httpsource.WithNormalize(httpsource.StampSource(source)))
		return cached[models.ProfileRecord](c, rc, kind, cfg, log)
	}
	return orchestrator.Collectors{
		Court:       cached[models.LegalRecord](httpsource.NewCollector[models.LegalRecord](client, httpsource.KindCourtCases), rc, httpsource.KindCourtCases, cfg, log),
		Matrimonial: profiles(httpsource.KindMatrimonial, models.SourceMatrimonial),
		Dating:      profiles(httpsource.KindDating, models.SourceDating),
		Social:      profiles(httpsource.KindSocial, models.SourceSocial),
	}
}

func cached[T any](c ports.Collector[T], rc *platformredis.Client, kind string, cfg config.EvidenceConfig, log *slog.Logger) ports.Collector[T] {
	if rc == nil || cfg.CacheTTL <= 0 {
		return c
	}
	return cache.New(c, rc.Client, kind, cfg.CacheTTL, cache.WithLogger[T](log))
}

func buildPhotoClient(cfg config.EvidenceConfig, photos ports.PhotoOpener, log *slog.Logger) *httpsource.PhotoClient {
	if cfg.PhotoServiceURL == "" {
		return nil
	}
	client := httpsource.NewClient(cfg.PhotoServiceURL,
		httpsource.WithLogger(log),
		httpsource.WithRateLimit(cfg.RatePerSec, cfg.Burst),
		httpsource.WithTimeout(cfg.Timeout),
	)
	return httpsource.NewPhotoClient(client, photos)
}
