package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/roster/roster/internal/metrics"
	"github.com/roster/roster/internal/middleware"
	"github.com/roster/roster/internal/model"
	"github.com/roster/roster/internal/repository"
	"github.com/roster/roster/internal/service"
	"github.com/roster/roster/internal/web"
)

// panicStore is a UserStore whose every call panics.
type panicStore struct{}

var _ repository.UserStore = panicStore{}

func (panicStore) InsertUser(ctx context.Context, name string) (*model.User, error) {
	panic("driver exploded")
}

func (panicStore) ListUsers(ctx context.Context) ([]model.User, error) {
	panic("driver exploded")
}

func (panicStore) Ping(ctx context.Context) error { return nil }

type testEnv struct {
	router   http.Handler
	recorder *metrics.InMemoryRecorder
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv builds the full router around store. A nil store runs without a database.
func newTestEnv(t *testing.T, store repository.UserStore) *testEnv {
	t.Helper()

	tmpl, err := web.Templates()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	logger := discardLogger()
	recorder := metrics.NewInMemory()
	svc := service.NewUserService(store, service.WithRecorder(recorder), service.WithLogger(logger))

	var db HealthChecker
	if store != nil {
		db = store
	}

	router := NewRouter(RouterConfig{
		Users:       NewUserHandler(svc, logger),
		Page:        NewPageHandler(svc, tmpl, recorder, logger),
		Health:      NewHealthHandler(Dependency{Name: "database", Checker: db}, Dependency{Name: "redis"}),
		Static:      web.Static(),
		Logger:      logger,
		Security:    middleware.DefaultSecurityConfig(),
		CORS:        middleware.DefaultCORSConfig(),
		MaxBodySize: 1 << 20,
	})

	return &testEnv{router: router, recorder: recorder}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
