// Package http serves the tracker's JSON API.
//
// This file implements the response envelope. Every endpoint answers with
// {"success": true, "data": ...} or {"success": false, "error": "..."} so
// clients branch on one field.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"opsledger/internal/core"
	"opsledger/internal/storage"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, envelope{Success: true, Message: message})
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, envelope{Success: false, Error: message})
}

// respondDomainError maps storage and validation errors onto status codes:
// missing rows are 404, version conflicts 409, rejected input 422 and
// everything else a 500 with a generic message.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrStaleVersion):
		respondError(w, http.StatusConflict, "the record was modified by someone else, reload and retry")
	case isValidationError(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, v := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrEmptyName,
		core.ErrMissingOwner,
		core.ErrInvalidStatus,
		core.ErrInvalidType,
		core.ErrTypeOwnerFields,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
