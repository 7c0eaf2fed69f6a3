package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/decoyops/honeytrap/internal/http/handlers"
	httpmiddleware "github.com/decoyops/honeytrap/internal/http/middleware"
	"github.com/decoyops/honeytrap/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Honeypot           *handlers.HoneypotHandler
	APIKey             string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health, metrics).
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.Honeypot.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Pipeline and intelligence endpoints, behind the shared-secret key.
	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.RequireAPIKey(cfg.APIKey))

		api.Post("/detect", cfg.Honeypot.Detect)

		api.Route("/conversation/{id}", func(r chi.Router) {
			r.Get("/", cfg.Honeypot.GetConversation)
			r.Delete("/", cfg.Honeypot.DeleteConversation)
		})

		api.Route("/intelligence", func(r chi.Router) {
			r.Get("/all", cfg.Honeypot.GetIntelligence)
			r.Get("/stats", cfg.Honeypot.GetStats)
			r.Get("/high-value", cfg.Honeypot.GetHighValue)
			r.Get("/conversations", cfg.Honeypot.GetConversations)
			r.Get("/export", cfg.Honeypot.Export)
		})
	})

	return r
}
