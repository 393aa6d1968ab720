package handler

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/roster/roster/internal/metrics"
	"github.com/roster/roster/internal/middleware"
	"github.com/roster/roster/internal/model"
	"github.com/roster/roster/internal/service"
	"github.com/roster/roster/internal/web"
)

// pageView is the data handed to the page template.
type pageView struct {
	Users []model.User
}

// fallbackView is the data handed to the fallback template.
type fallbackView struct {
	Message string
}

// PageHandler renders the user list page.
type PageHandler struct {
	svc       *service.UserService
	templates *template.Template
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(svc *service.UserService, templates *template.Template, recorder metrics.Recorder, logger *slog.Logger) *PageHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PageHandler{
		svc:       svc,
		templates: templates,
		metrics:   recorder,
		logger:    logger,
	}
}

// Index handles GET /.
// Failures on this path render the fallback view instead of an error page.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	defer func() {
		if rvr := recover(); rvr != nil {
			h.logger.Error("page render panic",
				"request_id", requestID,
				"panic", rvr,
				"stack", string(debug.Stack()),
			)
			h.renderFallback(w, MsgUnexpected)
		}
	}()

	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDatabaseUnavailable):
			h.logger.Error("database_unavailable", "request_id", requestID, "path", r.URL.Path)
			h.renderFallback(w, MsgDatabaseUnavailable)
		default:
			h.logger.Error("page load failed", "request_id", requestID, "error", err)
			h.renderFallback(w, MsgLoadFailed)
		}
		return
	}

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, web.PageTemplate, pageView{Users: normalizeCreated(users)}); err != nil {
		h.logger.Error("page template failed", "request_id", requestID, "error", err)
		h.renderFallback(w, MsgUnexpected)
		return
	}

	h.metrics.IncPageRender(metrics.PageOK)
	writeHTML(w, buf.Bytes())
}

// renderFallback writes the error view. A failing fallback template degrades to static markup.
func (h *PageHandler) renderFallback(w http.ResponseWriter, message string) {
	h.metrics.IncPageRender(metrics.PageFallback)

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, web.FallbackTemplate, fallbackView{Message: message}); err != nil {
		h.logger.Error("fallback template failed", "error", err)
		buf.Reset()
		fmt.Fprintf(&buf, "<!DOCTYPE html><html><body><h2>Something went wrong</h2><p>%s</p></body></html>", html.EscapeString(message))
	}
	writeHTML(w, buf.Bytes())
}

// normalizeCreated zeroes timestamps that cannot be real creation times.
func normalizeCreated(users []model.User) []model.User {
	out := make([]model.User, len(users))
	for i, u := range users {
		if !u.HasCreated() {
			u.Created = 0
		}
		out[i] = u
	}
	return out
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
