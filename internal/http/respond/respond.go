// Package respond writes JSON bodies and maps domain errors to HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/backoffice/internal/record"
)

type errorResponse struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorResponse{Error: msg})
}

// Error writes err with the status its kind calls for. Unexpected errors are logged and hidden
// behind a generic message.
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, record.ErrUnknownModule), errors.Is(err, record.ErrNotFound):
		Message(w, http.StatusNotFound, err.Error())
	case errors.Is(err, record.ErrValidation):
		Message(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("request failed", "error", err)
		Message(w, http.StatusInternalServerError, "internal error")
	}
}
