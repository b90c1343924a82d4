package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"flightplanner/internal/config"
)

const (
	serviceName    = "flightplanner"
	serviceVersion = "1.0.0"

	statusTimeout = 2 * time.Second
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// statusHandler reports service metadata and the aircraft registry state.
// The registry is "disabled" without a database and "unavailable" when the
// database fails its ping, which also marks the service as degraded.
func statusHandler(cfg *config.Config, db HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "operational"
		registry := "disabled"

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
			defer cancel()

			registry = "ok"
			if err := db.Health(ctx); err != nil {
				logger.WarnContext(ctx, "aircraft registry unhealthy", slog.Any("error", err))
				status = "degraded"
				registry = "unavailable"
			}
		}

		environment := ""
		if cfg != nil {
			environment = cfg.Environment
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"service":           serviceName,
			"version":           serviceVersion,
			"status":            status,
			"environment":       environment,
			"aircraft_registry": registry,
		})
	}
}
