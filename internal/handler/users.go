package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/roster/roster/internal/handler/dto"
	"github.com/roster/roster/internal/middleware"
	"github.com/roster/roster/internal/service"
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// AddUser handles POST /api/add-user.
// On success the body is the full user list read back after the insert.
func (h *UserHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req dto.AddUserRequest
	if err := decodeJSONBody(r.Body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			writeError(w, http.StatusBadRequest, CodeInvalidName, MsgInvalidName)
			return
		}
		writeError(w, http.StatusBadRequest, CodeInvalidJSON, MsgInvalidJSON)
		return
	}

	name, ok := req.NameString()
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidName, MsgInvalidName)
		return
	}

	users, err := h.svc.AddUser(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, r, err, MsgInsertFailed)
		return
	}

	h.logger.Info("user_added",
		"request_id", middleware.GetRequestID(r.Context()),
		"user_count", len(users),
	)

	writeJSON(w, http.StatusOK, users)
}

// errTrailingData reports bytes after the first JSON value of a request body.
var errTrailingData = errors.New("unexpected data after JSON value")

// decodeJSONBody decodes exactly one JSON value from body. Trailing whitespace is allowed.
func decodeJSONBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, MsgLoadFailed)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// handleServiceError maps service errors to HTTP responses.
// storageMsg is the message reported for storage failures of the current operation.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, storageMsg string) {
	requestID := middleware.GetRequestID(r.Context())

	switch {
	case errors.Is(err, service.ErrNameRequired):
		writeError(w, http.StatusBadRequest, CodeInvalidName, MsgInvalidName)
	case errors.Is(err, service.ErrDatabaseUnavailable):
		h.logger.Error("database_unavailable", "request_id", requestID, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, CodeDatabaseUnavailable, MsgDatabaseUnavailable)
	case errors.Is(err, service.ErrStorage):
		h.logger.Error("storage_error", "request_id", requestID, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, CodeStorageError, storageMsg)
	default:
		h.logger.Error("internal_error", "request_id", requestID, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternalError, MsgUnexpected)
	}
}
