// Package app assembles the HTTP router and its readiness checks.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/lead-agent/internal/adapter/httpserver"
	"github.com/fairyhunter13/lead-agent/internal/adapter/observability"
	"github.com/fairyhunter13/lead-agent/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.RequestID())
	r.Use(httpserver.Deadline(cfg.RequestTimeout))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// The chat endpoint applies its own per-client fixed window.
	r.Post("/api/agent", srv.AgentHandler())

	r.Group(func(ops chi.Router) {
		if cfg.OpsRateLimitPerMin > 0 {
			ops.Use(httprate.LimitByIP(cfg.OpsRateLimitPerMin, time.Minute))
		}
		ops.Get("/healthz", srv.HealthzHandler())
		ops.Get("/readyz", srv.ReadyzHandler())
		ops.Handle("/metrics", promhttp.Handler())
	})

	return httpserver.SecurityHeaders(r)
}
