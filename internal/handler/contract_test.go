package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/roster/roster/internal/repository"
	"github.com/roster/roster/internal/repository/memory"
)

// contractBaseURL matches the server entry in the OpenAPI document.
const contractBaseURL = "http://localhost:8080"

// loadContract loads and validates the OpenAPI document.
func loadContract(t *testing.T) (*openapi3.T, routers.Router) {
	t.Helper()

	path := filepath.Join("..", "..", "docs", "api", "openapi.yaml")

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load OpenAPI document from %s: %v", path, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI document validation failed: %v", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		t.Fatalf("Failed to create router from contract: %v", err)
	}
	return doc, router
}

func TestContract_ListsRoutes(t *testing.T) {
	doc, _ := loadContract(t)

	for _, path := range []string{"/api/add-user", "/api/users", "/healthz", "/readyz"} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("Expected path %s not found in contract", path)
		}
	}
}

func TestContract_ResponsesMatchContract(t *testing.T) {
	_, contractRouter := loadContract(t)

	failing := memory.New()
	failing.SetUnavailable(true, nil)

	tests := []struct {
		name       string
		store      repository.UserStore
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"add user", memory.New(), http.MethodPost, "/api/add-user", `{"name":"Alice"}`, http.StatusOK},
		{"add user invalid name", memory.New(), http.MethodPost, "/api/add-user", `{"name":"  "}`, http.StatusBadRequest},
		{"add user invalid json", memory.New(), http.MethodPost, "/api/add-user", `{`, http.StatusBadRequest},
		{"add user no database", nil, http.MethodPost, "/api/add-user", `{"name":"Alice"}`, http.StatusInternalServerError},
		{"add user storage error", failing, http.MethodPost, "/api/add-user", `{"name":"Alice"}`, http.StatusInternalServerError},
		{"add user panic", panicStore{}, http.MethodPost, "/api/add-user", `{"name":"Alice"}`, http.StatusInternalServerError},
		{"list users", memory.New(), http.MethodGet, "/api/users", "", http.StatusOK},
		{"list users no database", nil, http.MethodGet, "/api/users", "", http.StatusInternalServerError},
		{"healthz", memory.New(), http.MethodGet, "/healthz", "", http.StatusOK},
		{"readyz", memory.New(), http.MethodGet, "/readyz", "", http.StatusOK},
		{"readyz unhealthy", failing, http.MethodGet, "/readyz", "", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.store)

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, contractBaseURL+tt.path, body)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			route, pathParams, err := contractRouter.FindRoute(req)
			if err != nil {
				t.Fatalf("Could not find route in contract: %v", err)
			}

			input := &openapi3filter.ResponseValidationInput{
				RequestValidationInput: &openapi3filter.RequestValidationInput{
					Request:    req,
					PathParams: pathParams,
					Route:      route,
				},
				Status:  rec.Code,
				Header:  rec.Header(),
				Body:    io.NopCloser(strings.NewReader(rec.Body.String())),
				Options: &openapi3filter.Options{IncludeResponseStatus: true},
			}
			if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
				t.Errorf("Response validation failed: %v", err)
			}
		})
	}
}
