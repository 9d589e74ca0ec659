package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sheinstock/internal/handler"
	"sheinstock/internal/metrics"
	"sheinstock/internal/middleware"
)

// Config holds the handlers wired into the router.
type Config struct {
	Log               zerolog.Logger
	SyncHandler       *handler.SyncHandler
	DashboardHandler  *handler.DashboardHandler
	CredentialHandler *handler.CredentialHandler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Log))
	// permissive CORS, same policy the hosted edge functions used
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/api/status", handler.Status)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.SyncHandler != nil {
			r.Post("/sync", cfg.SyncHandler.Run)
			r.Get("/sync/runs", cfg.SyncHandler.Runs)
		}
		if cfg.DashboardHandler != nil {
			r.Get("/dashboard", cfg.DashboardHandler.Get)
		}
		if cfg.CredentialHandler != nil {
			r.Post("/credentials", cfg.CredentialHandler.Save)
			r.Get("/credentials", cfg.CredentialHandler.Status)
		}
	})

	return r
}
