// Package api provides the HTTP API for on-demand enrichment and cache status.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sportmap/sportmap-enricher/internal/ratelimit"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	service     *Service
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
	rateLimiter *ratelimit.KeyedRateLimiter
}

// Options configures the server.
type Options struct {
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	// EnrichPerMinute limits enrich requests per client IP; 0 disables the limit.
	EnrichPerMinute int
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(service *Service, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		service: service,
		router:  chi.NewRouter(),
		logger:  logger,
	}
	if opts.EnrichPerMinute > 0 {
		s.rateLimiter = NewRateLimiter(opts.EnrichPerMinute, time.Minute, opts.EnrichPerMinute)
	}

	s.setupMiddleware(opts)

	config := huma.DefaultConfig("SportMap Enricher API", Version)
	s.api = humachi.New(s.router, config)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerCacheRoutes()
	s.registerEnrichRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}
