package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const msgpackContentType = "application/msgpack"

// Error types carried in the error envelope.
const (
	errTypeInvalidRequest = "invalid_request_error"
	errTypeInfeasible     = "infeasible_flight_error"
	errTypeNotFound       = "not_found_error"
	errTypeServer         = "server_error"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// writeResponse encodes data as MessagePack when the client asks for it and
// as JSON otherwise. Both encodings use the json field names.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	if !acceptsMsgpack(r) {
		writeJSON(w, status, data)
		return
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(data); err != nil {
		slog.Error("failed to encode msgpack response", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error", errTypeServer)
		return
	}

	w.Header().Set("Content-Type", msgpackContentType)
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write msgpack response", slog.Any("error", err))
	}
}

func acceptsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && (mt == msgpackContentType || mt == "application/x-msgpack") {
			return true
		}
	}
	return false
}

// writeError writes the JSON error envelope.
func writeError(w http.ResponseWriter, status int, message, errType string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"message": message,
			"type":    errType,
		},
	})
}

func methodNotAllowedHandler(allowedMethods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allowedMethods)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", errTypeInvalidRequest)
	}
}
