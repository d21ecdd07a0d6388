// Package httptransport assembles the HTTP surface: middleware stack,
// public health and metrics endpoints, and the token-gated engine routes.
// It should stay free of business logic; handlers delegate to services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certmint/internal/platform/health"
	"certmint/internal/platform/metrics"
	"certmint/internal/platform/middleware"
)

// requestTimeout bounds one request end to end, retries included.
const requestTimeout = 30 * time.Second

// Registrar mounts a handler group onto a router.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs. All fields are required
// except Metrics, which disables the latency middleware when nil.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Tokens   *middleware.TokenService
	Health   *health.Handler
	Registry Registrar
	Issuance Registrar
}

// NewRouter wires all endpoints with the middleware stack. Health and
// metrics stay public; everything else requires a bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	if deps.Metrics != nil {
		r.Use(endpointLatency(deps.Metrics))
	}

	deps.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Tokens, deps.Logger))
		r.Use(middleware.ContentTypeJSON)
		deps.Registry.Register(r)
		deps.Issuance.Register(r)
	})

	return r
}

// endpointLatency records per-route request durations using the chi route
// pattern, so path parameters do not explode the label space.
func endpointLatency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			next.ServeHTTP(w, r)
			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.ObserveEndpointLatency(pattern, time.Since(started).Seconds())
		})
	}
}
