// Package httpapi assembles the public HTTP surface: sale and treasury routes,
// health, and Prometheus metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dropspace/internal/platform/middleware"
	"dropspace/pkg/platform/httputil"
)

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Sale     Registrar
	Treasury Registrar
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	Checks   map[string]HealthChecker
}

// Registrar is implemented by the per-domain handlers.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the service router. Request-scoped middleware runs on every
// route; auth and content-type checks are attached per-group by the handlers.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/healthz", handleHealth(deps.Checks))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	deps.Sale.Register(r)
	deps.Treasury.Register(r)

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := "ok"
		details := make(map[string]string, len(checks))
		code := http.StatusOK
		for name, c := range checks {
			if c == nil {
				continue
			}
			if err := c.Health(ctx); err != nil {
				details[name] = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			details[name] = "ok"
		}
		httputil.WriteJSON(w, code, map[string]any{"status": status, "checks": details})
	}
}
