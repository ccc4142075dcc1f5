package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookpilot/booking-nlu/internal/http/handlers"
	httpmiddleware "github.com/bookpilot/booking-nlu/internal/http/middleware"
	"github.com/bookpilot/booking-nlu/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ResolveHandler     *handlers.ResolveHandler
	AliasHandler       *handlers.AliasHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

	r.Get("/health", cfg.ResolveHandler.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(httpmiddleware.Tenant)
		v1.Post("/resolve", cfg.ResolveHandler.Resolve)
		if cfg.AliasHandler != nil {
			v1.Route("/tenants/{tenantID}/aliases", func(a chi.Router) {
				a.Get("/", cfg.AliasHandler.Get)
				a.Put("/", cfg.AliasHandler.Put)
				a.Delete("/", cfg.AliasHandler.Delete)
			})
		}
	})

	return r
}
