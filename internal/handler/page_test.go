package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/roster/roster/internal/metrics"
	"github.com/roster/roster/internal/model"
	"github.com/roster/roster/internal/repository/memory"
	"github.com/roster/roster/internal/service"
)

func TestPage_RendersUsers(t *testing.T) {
	env := newTestEnv(t, memory.New())
	env.do(http.MethodPost, "/api/add-user", `{"name":"Alice"}`)
	env.do(http.MethodPost, "/api/add-user", `{"name":"Bob"}`)

	rec := env.do(http.MethodGet, "/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}
	body := rec.Body.String()
	alice := strings.Index(body, `<span class="user-name">Alice</span>`)
	bob := strings.Index(body, `<span class="user-name">Bob</span>`)
	if alice < 0 || bob < 0 || alice > bob {
		t.Errorf("expected Alice before Bob in page")
	}
	if strings.Count(body, "Created: ") != 2 {
		t.Errorf("expected created labels for both users")
	}
	if !strings.Contains(body, `<script src="/static/userlist.js" defer></script>`) {
		t.Error("expected user list script")
	}
	if env.recorder.Snapshot().PagesRendered != 1 {
		t.Error("expected page render metric")
	}
}

func TestPage_EmptyState(t *testing.T) {
	env := newTestEnv(t, memory.New())

	rec := env.do(http.MethodGet, "/", "")
	if !strings.Contains(rec.Body.String(), "No users yet. Add one above!") {
		t.Error("expected empty placeholder")
	}
}

func TestPage_DatabaseUnavailableShowsFallback(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected fallback page with 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Something went wrong", "Database connection not available"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in fallback view", want)
		}
	}
	if strings.Contains(body, "user-list-view") {
		t.Error("fallback must not render the list view")
	}
	if env.recorder.Snapshot().PageFallbacks != 1 {
		t.Error("expected fallback metric")
	}
}

func TestPage_StorageFailureShowsGenericMessage(t *testing.T) {
	store := memory.New()
	store.SetUnavailable(true, errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	env := newTestEnv(t, store)

	body := env.do(http.MethodGet, "/", "").Body.String()

	if !strings.Contains(body, "Failed to load users") {
		t.Error("expected load failure message")
	}
	if strings.Contains(body, "10.0.0.1") {
		t.Error("driver error leaked into page")
	}
}

func TestPage_PanicShowsFallback(t *testing.T) {
	env := newTestEnv(t, panicStore{})

	rec := env.do(http.MethodGet, "/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected fallback page with 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Something went wrong") || !strings.Contains(body, "An unexpected error occurred") {
		t.Errorf("expected fallback view, got %s", body)
	}
}

func TestPage_TemplateFailureDegradesToStaticMarkup(t *testing.T) {
	broken := template.Must(template.New("").Parse(`{{define "page.html"}}{{.Missing.Field}}{{end}}`))
	svc := service.NewUserService(memory.New())
	recorder := metrics.NewInMemory()
	h := NewPageHandler(svc, broken, recorder, discardLogger())

	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "Something went wrong") || !strings.Contains(body, "An unexpected error occurred") {
		t.Errorf("expected static fallback, got %s", body)
	}
	if strings.Contains(body, "page.html") {
		t.Error("template error leaked into page")
	}
}

func TestNormalizeCreated(t *testing.T) {
	in := []model.User{{ID: "a", Created: -5}, {ID: "b", Created: 0}, {ID: "c", Created: 1700000000000}}

	out := normalizeCreated(in)

	if out[0].Created != 0 || out[1].Created != 0 || out[2].Created != 1700000000000 {
		t.Errorf("unexpected normalization: %+v", out)
	}
	if in[0].Created != -5 {
		t.Error("input slice must not be modified")
	}
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, memory.New())

	rec := env.do(http.MethodGet, "/static/userlist.js", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("/api/add-user")) {
		t.Error("expected user list script body")
	}
}
