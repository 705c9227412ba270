package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ledgerhandler "mastery/internal/ledger/handler"
	"mastery/internal/platform/health"
	"mastery/pkg/platform/middleware/auth"
	request "mastery/pkg/platform/middleware/request"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxBodyBytes   = 64 << 10
)

// Deps are the components the router mounts.
type Deps struct {
	Ledger      *ledgerhandler.Handler
	Health      *health.Handler
	Tokens      auth.TokenValidator
	Revocations auth.TokenRevocationChecker
	Gatherer    prometheus.Gatherer
	Latency     *request.Metrics
	Logger      *slog.Logger
}

// NewRouter wires all public endpoints with middleware. Health probes and
// /metrics are unauthenticated; every ledger route requires a bearer token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.Logger(d.Logger))
	r.Use(request.Latency(d.Latency, routePattern))
	r.Use(request.Timeout(DefaultRequestTimeout))

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(request.BodyLimit(DefaultMaxBodyBytes))
		r.Use(request.ContentTypeJSON)
		r.Use(auth.RequirePrincipal(d.Tokens, d.Revocations, d.Logger))
		d.Ledger.Register(r)
	})

	return r
}

// routePattern labels latency by chi route template, e.g. /verifications/{id}.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
