package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the error body shape shared by every endpoint.
// Stack carries the underlying error chain and is only populated in
// development mode.
type ErrorResponse struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondError sends a JSON error response with the given message and status code.
func RespondError(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, ErrorResponse{Message: message}, statusCode)
}

// RespondErrorWithStack sends a JSON error response including the underlying
// error chain. Callers must only pass the stack in development mode.
func RespondErrorWithStack(w http.ResponseWriter, message, stack string, statusCode int) {
	RespondJSON(w, ErrorResponse{Message: message, Stack: stack}, statusCode)
}
