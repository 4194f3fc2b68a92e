// Package api provides the HTTP surface: huma-described JSON endpoints
// for search and archive records, and raw chi handlers for binary image
// streaming.
package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stackshelf/stackshelf-server/internal/config"
	"github.com/stackshelf/stackshelf-server/internal/errors"
	"github.com/stackshelf/stackshelf-server/internal/logger"
	"github.com/stackshelf/stackshelf-server/internal/metrics"
	"github.com/stackshelf/stackshelf-server/internal/ratelimit"
	"github.com/stackshelf/stackshelf-server/internal/render"
	"github.com/stackshelf/stackshelf-server/internal/store"
)

// Render requests decode and resize full pages, so the image route gets a
// per-client budget. Cached hits are cheap but share the same bucket.
const (
	renderRPS   = 20
	renderBurst = 60
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	renderer *render.Renderer
	cfg      *config.Config
	router   *chi.Mux
	api      huma.API
	limiter  *ratelimit.Keyed
	logger   *logger.Logger
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(st store.Store, renderer *render.Renderer, cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		store:    st,
		renderer: renderer,
		cfg:      cfg,
		router:   chi.NewRouter(),
		limiter:  ratelimit.New(renderRPS, renderBurst),
		logger:   log,
	}

	s.setupMiddleware()
	s.api = humachi.New(s.router, huma.DefaultConfig("StackShelf API", "1.0.0"))
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-owned background resources. Safe to call more
// than once.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(metrics.Middleware())
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.registerLibraryRoutes()
	s.registerArchiveRoutes()

	// Image streaming stays on raw chi: huma buffers JSON bodies.
	s.router.Get("/image/{key}/{page}/{kind}", s.handleImage)

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// humaError maps a domain error to a huma status error, hiding internal
// causes behind a generic message.
func (s *Server) humaError(err error) error {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		switch domainErr.HTTPStatus() {
		case http.StatusNotFound:
			return huma.Error404NotFound(domainErr.Message)
		case http.StatusBadRequest:
			return huma.Error400BadRequest(domainErr.Message)
		}
	}
	s.logger.WithError(err).Error("request failed")
	return huma.Error500InternalServerError("internal error")
}
