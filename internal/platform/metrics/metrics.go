package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds process-wide HTTP metrics.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
}

// New creates and registers the process-wide metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "past_matters_http_requests_total",
			Help: "Total HTTP requests by route pattern and status class",
		}, []string{"route", "status"}),
	}
}

// IncrementRequests counts one served request.
func (m *Metrics) IncrementRequests(route, status string) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, status).Inc()
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware counts requests by chi route pattern, so ids in the path do not
// explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.IncrementRequests(route, strconv.Itoa(status/100)+"xx")
	})
}
