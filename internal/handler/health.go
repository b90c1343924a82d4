package handler

import (
	"net/http"
)

// HealthCheck reports that the process is up. It never touches the database.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
