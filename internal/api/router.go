package api

import (
	"context"
	"encoding/json"
	"lending-engine/internal/api/middleware"
	"lending-engine/internal/config"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 2 * time.Second

// NewOpsRouter builds the operational surface: liveness of the database and the metrics scrape endpoint.
func NewOpsRouter(cfg *config.Config, db Pinger, limiter *middleware.RateLimiterMiddleware, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.MetricsMiddleware())
	r.Use(limiter.Middleware)

	r.Get("/health", healthHandler(db, logger))
	r.Handle(cfg.Metrics.Path, promhttp.Handler())

	return r
}

func healthHandler(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status, body := http.StatusOK, map[string]string{"status": "ok", "database": "up"}
		if err := db.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "Health check failed", slog.Any("error", err))
			status, body = http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
