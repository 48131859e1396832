package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// TimeLayout is the timestamp format carried in every response envelope.
const TimeLayout = "2006-01-02 15:04:05"

// Timestamp returns the current time in the envelope format.
func Timestamp() string {
	return time.Now().Format(TimeLayout)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes the error envelope used by every route: a JSON object
// with a single "error" field plus the HTTP status.
func WriteError(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, map[string]string{"error": detail})
}

// Unauthenticated writes the 401 envelope.
func Unauthenticated(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "not authenticated")
}

// Forbidden writes the 403 envelope.
func Forbidden(w http.ResponseWriter) {
	WriteError(w, http.StatusForbidden, "access denied")
}

// DeviceNotFound writes the 404 envelope.
func DeviceNotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, "device not found")
}
