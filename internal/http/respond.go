package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finbook/internal/core"
)

// envelope is the uniform response shape: {success, data?, error?}.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, envelope{Success: false, Error: msg})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondOpError maps the core error taxonomy onto HTTP statuses: validation
// errors carry their message, not-found is distinct, and anything else is a
// generic persistence failure.
func respondOpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path,
			"method", r.Method,
			"error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
