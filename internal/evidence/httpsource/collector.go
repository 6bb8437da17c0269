package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/ports"
)

// Upstream evidence kinds, used as the URL path segment.
const (
	KindCourtCases  = "court-cases"
	KindMatrimonial = "matrimonial"
	KindDating      = "dating"
	KindSocial      = "social"
)

type recordsEnvelope[T any] struct {
	Records []T `json:"records"`
}

// Collector fetches one kind of evidence with
// GET {base}/{kind}?name=...&hint=... answering {"records": [...]}.
type Collector[T any] struct {
	client    *Client
	kind      string
	normalize func(T) T
}

// CollectorOption configures a Collector.
type CollectorOption[T any] func(*Collector[T])

// WithNormalize rewrites every decoded record.
func WithNormalize[T any](fn func(T) T) CollectorOption[T] {
	return func(c *Collector[T]) {
		c.normalize = fn
	}
}

func NewCollector[T any](client *Client, kind string, opts ...CollectorOption[T]) *Collector[T] {
	c := &Collector[T]{client: client, kind: kind}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StampSource fills in the source kind of profiles the upstream left blank.
func StampSource(kind models.SourceKind) func(models.ProfileRecord) models.ProfileRecord {
	return func(p models.ProfileRecord) models.ProfileRecord {
		if p.SourceKind == "" {
			p.SourceKind = kind
		}
		if p.StatusHistory == nil {
			p.StatusHistory = []models.StatusChange{}
		}
		return p
	}
}

// Fetch never fails: any problem yields an empty degraded collection.
func (c *Collector[T]) Fetch(ctx context.Context, q ports.Query) (res ports.Collection[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			c.client.logger.ErrorContext(ctx, "evidence collector panicked",
				"kind", c.kind,
				"panic", fmt.Sprint(rec),
			)
			res = degraded[T]()
		}
	}()

	records, err := c.fetch(ctx, q)
	if err != nil {
		c.client.logger.WarnContext(ctx, "evidence source unavailable",
			"kind", c.kind,
			"error", err,
		)
		return degraded[T]()
	}
	if c.normalize != nil {
		for i := range records {
			records[i] = c.normalize(records[i])
		}
	}
	return ports.Collection[T]{Records: records}
}

func (c *Collector[T]) fetch(ctx context.Context, q ports.Query) ([]T, error) {
	ctx, cancel := c.client.withTimeout(ctx)
	defer cancel()

	params := url.Values{}
	params.Set("name", q.Name)
	if q.Hint != "" {
		params.Set("hint", q.Hint)
	}
	endpoint := c.client.baseURL + "/" + c.kind + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode}
	}
	var env recordsEnvelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s records: %w", c.kind, err)
	}
	if env.Records == nil {
		env.Records = []T{}
	}
	return env.Records, nil
}

func degraded[T any]() ports.Collection[T] {
	return ports.Collection[T]{Records: []T{}, Degraded: true}
}
