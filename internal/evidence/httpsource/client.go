// Package httpsource adapts upstream evidence and photo services reached
// over HTTP to the collector contracts. Nothing here returns an error to
// the orchestrator: failures are logged and reported as degraded results.
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"pastmatters/pkg/platform/circuit"
)

// ErrCircuitOpen is returned without calling the upstream while its breaker
// is open.
var ErrCircuitOpen = errors.New("upstream circuit open")

// Defaults applied by NewClient.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultRatePerSec = 10
	DefaultBurst      = 5
)

// Client is the shared transport for one upstream: base URL, token-bucket
// throttle and per-call timeout.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// WithRateLimit throttles outgoing calls to perSec with the given burst.
func WithRateLimit(perSec float64, burst int) Option {
	return func(cl *Client) {
		cl.limiter = rate.NewLimiter(rate.Limit(perSec), max(burst, 1))
	}
}

// WithBreaker replaces the default breaker (5 failures, 30s cooldown).
func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

// WithTimeout bounds every call including the wait for a rate token.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(DefaultRatePerSec), DefaultBurst),
		timeout: DefaultTimeout,
		breaker: circuit.New(baseURL),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do waits for a rate token and sends req. Transport errors and 5xx answers
// count against the breaker. The caller closes the body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil || resp.StatusCode >= http.StatusInternalServerError {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(req.Context(), "upstream circuit opened", "upstream", c.breaker.Name())
		}
	} else if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(req.Context(), "upstream circuit closed", "upstream", c.breaker.Name())
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// statusError reports an unexpected upstream status.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected upstream status %d", e.status)
}
