package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linhsuan/shortstack"
)

// ErrorResponse is the JSON error body shared by every API endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	ErrorID string `json:"error_id,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, message string) {
	if err := WriteJSON(w, code, ErrorResponse{Error: message}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError maps a service error onto the API surface. Unexpected errors
// are logged under a fresh correlation id that is returned to the client, so
// a support request can be matched to the log line.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shortstack.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, shortstack.ErrInvalidInput), errors.Is(err, shortstack.ErrIllegalPath):
		WriteError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, shortstack.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		id := shortstack.RandomString(8)
		slog.Error("request error", "error", err, "error_id", id)
		if encErr := WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal server error",
			ErrorID: id,
		}); encErr != nil {
			slog.Error("failed to encode error response", "error", encErr)
		}
	}
}
