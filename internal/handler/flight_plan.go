package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"flightplanner/internal/aircraft"
	"flightplanner/internal/flightplan"
	"flightplanner/internal/navcalc"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	maxRequestBodySize = 1 << 20 // 1 MiB

	defaultRegistration = "SP-N/A"
	defaultModel        = "Unknown"
)

// AircraftResolver looks up stored performance figures by registration.
type AircraftResolver interface {
	Resolve(ctx context.Context, registration string) (flightplan.Aircraft, error)
}

// FlightPlanHandler handles POST /api/v1/flight-plan.
type FlightPlanHandler struct {
	planner  *flightplan.Planner
	resolver AircraftResolver // nil when the registry is disabled
	logger   *slog.Logger
}

// NewFlightPlanHandler creates a flight-plan handler. resolver may be nil.
func NewFlightPlanHandler(planner *flightplan.Planner, resolver AircraftResolver, logger *slog.Logger) *FlightPlanHandler {
	if planner == nil {
		planner = flightplan.NewPlanner(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FlightPlanHandler{planner: planner, resolver: resolver, logger: logger}
}

type pointInput struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Ident *string  `json:"ident"`
}

type aircraftInput struct {
	Registration *string  `json:"registration"`
	Model        *string  `json:"model"`
	TAS          *float64 `json:"tas"`
	GPH          *float64 `json:"gph"`
}

type windInput struct {
	Direction *float64 `json:"direction"`
	Speed     *float64 `json:"speed"`
}

// flightPlanRequest is the JSON request body. Pointer fields distinguish
// "absent" from zero so required fields and defaults can be enforced.
type flightPlanRequest struct {
	RoutePoints         []pointInput   `json:"route_points"`
	Aircraft            *aircraftInput `json:"aircraft"`
	Wind                *windInput     `json:"wind"`
	MagneticDeclination *float64       `json:"magnetic_declination"`
}

// requestError is a field-level validation failure reported as 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// Create handles POST /api/v1/flight-plan
func (h *FlightPlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req flightPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", errTypeInvalidRequest)
			return
		}
		writeError(w, http.StatusBadRequest, decodeErrorMessage(err), errTypeInvalidRequest)
		return
	}

	points, err := req.points()
	if err != nil {
		h.writeRequestError(w, r, err)
		return
	}
	ac, err := h.aircraft(ctx, req.Aircraft)
	if err != nil {
		h.writeRequestError(w, r, err)
		return
	}
	wind, err := req.wind()
	if err != nil {
		h.writeRequestError(w, r, err)
		return
	}

	planner := h.planner
	if d := req.MagneticDeclination; d != nil {
		if *d < -180 || *d > 180 {
			writeError(w, http.StatusBadRequest, "magnetic_declination must be in [-180, 180]", errTypeInvalidRequest)
			return
		}
		planner = flightplan.NewPlanner(navcalc.FixedDeclination(*d))
	}

	fp, err := planner.Compute(points, ac, wind)
	if err != nil {
		h.writeRequestError(w, r, err)
		return
	}

	writeResponse(w, r, http.StatusOK, toFlightPlanResponse(fp))
}

// writeRequestError maps validation and engine errors to HTTP responses.
func (h *FlightPlanHandler) writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, reqErr.msg, errTypeInvalidRequest)
	case errors.Is(err, navcalc.ErrInvalidCoordinate), errors.Is(err, navcalc.ErrInvalidWindTriangle):
		writeError(w, http.StatusBadRequest, err.Error(), errTypeInvalidRequest)
	case errors.Is(err, flightplan.ErrNonPositiveGroundSpeed):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), errTypeInfeasible)
	default:
		h.logger.ErrorContext(r.Context(), "failed to compute flight plan",
			slog.Any("error", err),
			slog.String("request_id", chimw.GetReqID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "internal error", errTypeServer)
	}
}

func (req *flightPlanRequest) points() ([]flightplan.Point, error) {
	if len(req.RoutePoints) < 2 {
		return nil, badRequest("route_points must contain at least 2 points")
	}

	points := make([]flightplan.Point, len(req.RoutePoints))
	for i, p := range req.RoutePoints {
		switch {
		case p.Lat == nil:
			return nil, badRequest("route_points[%d].lat is required", i)
		case p.Lon == nil:
			return nil, badRequest("route_points[%d].lon is required", i)
		case *p.Lat < -90 || *p.Lat > 90:
			return nil, badRequest("route_points[%d].lat must be in [-90, 90]", i)
		case *p.Lon < -180 || *p.Lon > 180:
			return nil, badRequest("route_points[%d].lon must be in [-180, 180]", i)
		}

		points[i] = flightplan.Point{Lat: *p.Lat, Lon: *p.Lon}
		if p.Ident != nil {
			points[i].Ident = *p.Ident
		}
	}
	return points, nil
}

// aircraft builds the aircraft from the request. When tas is omitted the
// registration is looked up in the registry, and any model or gph in the
// request override the stored values.
func (h *FlightPlanHandler) aircraft(ctx context.Context, in *aircraftInput) (flightplan.Aircraft, error) {
	if in == nil {
		return flightplan.Aircraft{}, badRequest("aircraft is required")
	}

	ac := flightplan.Aircraft{Registration: defaultRegistration, Model: defaultModel}
	if in.Registration != nil {
		ac.Registration = *in.Registration
	}

	switch {
	case in.TAS != nil:
		if !isWhole(*in.TAS) {
			return flightplan.Aircraft{}, badRequest("aircraft.tas must be an integer")
		}
		if *in.TAS <= 0 {
			return flightplan.Aircraft{}, badRequest("aircraft.tas must be greater than 0")
		}
		ac.TAS = *in.TAS
	case h.resolver == nil || in.Registration == nil:
		return flightplan.Aircraft{}, badRequest("aircraft.tas is required")
	default:
		stored, err := h.resolver.Resolve(ctx, *in.Registration)
		switch {
		case errors.Is(err, aircraft.ErrNotFound):
			return flightplan.Aircraft{}, badRequest("unknown aircraft registration %q", *in.Registration)
		case errors.Is(err, aircraft.ErrInvalidRegistration):
			return flightplan.Aircraft{}, badRequest("invalid aircraft registration %q", *in.Registration)
		case err != nil:
			return flightplan.Aircraft{}, err
		}
		ac = stored
	}

	if in.Model != nil {
		ac.Model = *in.Model
	}
	if in.GPH != nil {
		if *in.GPH < 0 || math.IsNaN(*in.GPH) {
			return flightplan.Aircraft{}, badRequest("aircraft.gph must be at least 0")
		}
		ac.GPH = *in.GPH
	}

	return ac, nil
}

func (req *flightPlanRequest) wind() (flightplan.Wind, error) {
	if req.Wind == nil {
		return flightplan.Wind{}, nil
	}

	var wind flightplan.Wind
	if d := req.Wind.Direction; d != nil {
		if !isWhole(*d) {
			return flightplan.Wind{}, badRequest("wind.direction must be an integer")
		}
		if *d < 0 || *d >= 360 {
			return flightplan.Wind{}, badRequest("wind.direction must be in [0, 360)")
		}
		wind.Direction = *d
	}
	if s := req.Wind.Speed; s != nil {
		if !isWhole(*s) {
			return flightplan.Wind{}, badRequest("wind.speed must be an integer")
		}
		if *s < 0 {
			return flightplan.Wind{}, badRequest("wind.speed must be at least 0")
		}
		wind.Speed = *s
	}
	return wind, nil
}

// isWhole reports whether v is an integral number, so 110 and 110.0 are
// both accepted for integer fields.
func isWhole(v float64) bool {
	return v == math.Trunc(v) && !math.IsInf(v, 0)
}

func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("invalid JSON: %s must be of type %s", typeErr.Field, typeErr.Type)
	}
	return "invalid JSON: " + strings.TrimPrefix(err.Error(), "json: ")
}
