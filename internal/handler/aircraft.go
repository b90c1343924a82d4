package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"flightplanner/internal/aircraft"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AircraftHandler handles the aircraft registry endpoints.
type AircraftHandler struct {
	manager *aircraft.Manager
	logger  *slog.Logger
}

// NewAircraftHandler creates a new aircraft registry handler.
func NewAircraftHandler(manager *aircraft.Manager, logger *slog.Logger) *AircraftHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AircraftHandler{manager: manager, logger: logger}
}

type aircraftResponse struct {
	ID           string  `json:"id"`
	Registration string  `json:"registration"`
	Model        string  `json:"model"`
	TAS          float64 `json:"tas"`
	GPH          float64 `json:"gph"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func toAircraftResponse(p *aircraft.Profile) aircraftResponse {
	return aircraftResponse{
		ID:           p.ID.String(),
		Registration: p.Registration,
		Model:        p.Model,
		TAS:          p.TAS,
		GPH:          p.GPH,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// List handles GET /api/v1/aircraft
func (h *AircraftHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	profiles, err := h.manager.List(r.Context(), limit, offset)
	if err != nil {
		h.serverError(w, r, "failed to list aircraft", err)
		return
	}

	response := make([]aircraftResponse, len(profiles))
	for i, p := range profiles {
		response[i] = toAircraftResponse(p)
	}

	writeResponse(w, r, http.StatusOK, map[string]any{
		"aircraft": response,
		"count":    len(response),
	})
}

// Get handles GET /api/v1/aircraft/{registration}
func (h *AircraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.manager.Get(r.Context(), r.PathValue("registration"))
	if err != nil {
		h.writeManagerError(w, r, "failed to get aircraft", err)
		return
	}

	writeResponse(w, r, http.StatusOK, toAircraftResponse(p))
}

// putAircraftRequest is the JSON request for creating or replacing a profile.
type putAircraftRequest struct {
	Model string   `json:"model"`
	TAS   *float64 `json:"tas"`
	GPH   float64  `json:"gph"`
}

// Put handles PUT /api/v1/aircraft/{registration}
func (h *AircraftHandler) Put(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req putAircraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, decodeErrorMessage(err), errTypeInvalidRequest)
		return
	}
	if req.TAS == nil {
		writeError(w, http.StatusBadRequest, "tas is required", errTypeInvalidRequest)
		return
	}

	p, err := h.manager.Upsert(r.Context(), r.PathValue("registration"), req.Model, *req.TAS, req.GPH)
	if err != nil {
		h.writeManagerError(w, r, "failed to store aircraft", err)
		return
	}

	writeResponse(w, r, http.StatusOK, toAircraftResponse(p))
}

// Delete handles DELETE /api/v1/aircraft/{registration}
func (h *AircraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(r.Context(), r.PathValue("registration")); err != nil {
		h.writeManagerError(w, r, "failed to delete aircraft", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AircraftHandler) writeManagerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, aircraft.ErrNotFound):
		writeError(w, http.StatusNotFound, "aircraft not found", errTypeNotFound)
	case errors.Is(err, aircraft.ErrInvalidRegistration), errors.Is(err, aircraft.ErrInvalidPerformance):
		writeError(w, http.StatusBadRequest, err.Error(), errTypeInvalidRequest)
	default:
		h.serverError(w, r, msg, err)
	}
}

func (h *AircraftHandler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.Any("error", err),
		slog.String("request_id", chimw.GetReqID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, msg, errTypeServer)
}
