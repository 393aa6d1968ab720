// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/roster/roster/internal/handler/dto"
)

// Error codes returned in the error envelope.
const (
	CodeInvalidJSON         = "INVALID_JSON"
	CodeInvalidName         = "INVALID_NAME"
	CodeDatabaseUnavailable = "DATABASE_UNAVAILABLE"
	CodeStorageError        = "STORAGE_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
)

// Client-facing error messages.
const (
	MsgInvalidJSON         = "Invalid JSON body"
	MsgInvalidName         = "Name is required and must be a non-empty string"
	MsgDatabaseUnavailable = "Database connection not available"
	MsgInsertFailed        = "Failed to insert user into database"
	MsgLoadFailed          = "Failed to load users"
	MsgUnexpected          = "An unexpected error occurred"
)

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Debug("failed to encode response", "error", err)
	}
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
