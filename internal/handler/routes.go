package handler

import (
	"log/slog"
	"net/http"

	"flightplanner/internal/aircraft"
	"flightplanner/internal/config"
	"flightplanner/internal/flightplan"
	"flightplanner/internal/jwtauth"
)

// Deps holds the dependencies shared by the HTTP handlers.
type Deps struct {
	Config  *config.Config
	Planner *flightplan.Planner
	Logger  *slog.Logger

	// Optional. Nil when DATABASE_URL is not set.
	AircraftManager *aircraft.Manager
	DB              HealthChecker

	// Optional. Nil when Auth0 is not configured, which leaves registry
	// writes unauthenticated.
	Verifier *jwtauth.Verifier
}

// RegisterRoutes registers all HTTP routes with the provided mux.
func RegisterRoutes(mux *http.ServeMux, deps *Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Health and status endpoints (no auth required)
	mux.HandleFunc("GET /health", HealthCheck)
	mux.HandleFunc("GET /api/v1/status", statusHandler(deps.Config, deps.DB, logger))

	var resolver AircraftResolver
	if deps.AircraftManager != nil {
		resolver = deps.AircraftManager
	}
	flightPlans := NewFlightPlanHandler(deps.Planner, resolver, logger)
	mux.HandleFunc("POST /api/v1/flight-plan", flightPlans.Create)
	mux.HandleFunc("/api/v1/flight-plan", methodNotAllowedHandler("POST"))

	if deps.AircraftManager == nil {
		return
	}

	ah := NewAircraftHandler(deps.AircraftManager, logger)
	mux.HandleFunc("GET /api/v1/aircraft", ah.List)
	mux.HandleFunc("GET /api/v1/aircraft/{registration}", ah.Get)
	mux.Handle("PUT /api/v1/aircraft/{registration}", requireWrite(deps.Verifier, ah.Put))
	mux.Handle("DELETE /api/v1/aircraft/{registration}", requireWrite(deps.Verifier, ah.Delete))
}

func requireWrite(v *jwtauth.Verifier, h http.HandlerFunc) http.Handler {
	if v == nil {
		return h
	}
	return v.Require(jwtauth.PermissionWriteAircraft)(h)
}
