// Package server provides the HTTP API for the query bot.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/config"
	"github.com/goel7054/swagger-bot/internal/corpus"
	"github.com/goel7054/swagger-bot/internal/metrics"
	"github.com/goel7054/swagger-bot/internal/router"
	"github.com/goel7054/swagger-bot/internal/storage"
)

// Server is the HTTP server for the query bot API.
type Server struct {
	store   *corpus.Store
	router  *router.Router
	catalog storage.Catalog
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. catalog may be nil,
// in which case spec listings are built from the current snapshot.
func NewServer(
	store *corpus.Store,
	rt *router.Router,
	catalog storage.Catalog,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:   store,
		router:  rt,
		catalog: catalog,
		config:  cfg,
		logger:  logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	if s.config.Metrics.EnabledOrDefault() {
		r.Use(metrics.Middleware())
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(time.Duration(s.config.Server.RequestTimeoutSec) * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/query", s.handleQuery)
	r.Get("/metadata", s.handleMetadata)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/operations", s.handleOperations)
		r.Get("/specs", s.handleSpecsList)
		r.Get("/specs/{source}", s.handleSpecGet)
		r.Post("/reload", s.handleReload)
		r.Get("/status", s.handleStatus)
	})

	if s.config.Metrics.EnabledOrDefault() {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
