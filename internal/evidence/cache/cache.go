// Package cache wraps evidence collectors with a Redis read-through cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pastmatters/internal/verification/ports"
)

const keyPrefix = "evidence:"

// DefaultTTL is used when New is given a non-positive ttl.
const DefaultTTL = 5 * time.Minute

// Collector serves repeated queries from Redis. Only healthy answers are
// cached; a degraded answer is returned as is and retried next time. Redis
// errors never reach the caller.
type Collector[T any] struct {
	next   ports.Collector[T]
	client *redis.Client
	kind   string
	ttl    time.Duration
	logger *slog.Logger
}

type Option[T any] func(*Collector[T])

func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(c *Collector[T]) {
		c.logger = logger
	}
}

func New[T any](next ports.Collector[T], client *redis.Client, kind string, ttl time.Duration, opts ...Option[T]) *Collector[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Collector[T]{
		next:   next,
		client: client,
		kind:   kind,
		ttl:    ttl,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key is the Redis key for a query of kind.
func Key(kind string, q ports.Query) string {
	sum := sha256.Sum256([]byte(q.Name + "\x00" + q.Hint))
	return keyPrefix + kind + ":" + hex.EncodeToString(sum[:])
}

func (c *Collector[T]) Fetch(ctx context.Context, q ports.Query) ports.Collection[T] {
	key := Key(c.kind, q)

	if records, ok := c.lookup(ctx, key); ok {
		return ports.Collection[T]{Records: records}
	}

	res := c.next.Fetch(ctx, q)
	if res.Degraded {
		return res
	}
	if res.Records == nil {
		res.Records = []T{}
	}
	data, err := json.Marshal(res.Records)
	if err != nil {
		c.logger.WarnContext(ctx, "evidence cache encode failed", "kind", c.kind, "error", err)
		return res
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "evidence cache write failed", "kind", c.kind, "error", err)
	}
	return res
}

func (c *Collector[T]) lookup(ctx context.Context, key string) ([]T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "evidence cache read failed", "kind", c.kind, "error", err)
		return nil, false
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.WarnContext(ctx, "evidence cache entry corrupt", "kind", c.kind, "error", err)
		return nil, false
	}
	if records == nil {
		records = []T{}
	}
	return records, true
}
