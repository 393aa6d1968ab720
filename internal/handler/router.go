package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/roster/roster/internal/middleware"
)

// RouterConfig collects the handlers and middleware settings for NewRouter.
type RouterConfig struct {
	Users   *UserHandler
	Page    *PageHandler
	Health  *HealthHandler
	Metrics http.Handler // optional
	Static  fs.FS        // optional

	Logger      *slog.Logger
	Security    middleware.SecurityConfig
	CORS        middleware.CORSConfig
	MaxBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Get("/", cfg.Page.Index)
	if cfg.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(cfg.Static))))
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.MaxBodySize > 0 {
			r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
		}
		r.Post("/add-user", cfg.Users.AddUser)
		r.Get("/users", cfg.Users.List)
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
