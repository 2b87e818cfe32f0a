// Package server provides the HTTP API for nexsearch.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/catalog"
	"github.com/nexventures/nexsearch/internal/config"
	"github.com/nexventures/nexsearch/internal/indexer"
	"github.com/nexventures/nexsearch/internal/metrics"
	"github.com/nexventures/nexsearch/internal/search"
	"github.com/nexventures/nexsearch/pkg/utils"
)

// Server is the HTTP server for the search API.
type Server struct {
	engine    *search.Engine
	store     catalog.Store
	config    *config.Config
	logger    *zap.Logger
	indexer   *indexer.Indexer
	seedFiles []string
	metrics   *metrics.Recorder
	gatherer  prometheus.Gatherer

	mu     sync.Mutex
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithIndexer enables POST /api/v1/catalog/sync over seedFiles.
func WithIndexer(idx *indexer.Indexer, seedFiles []string) Option {
	return func(s *Server) {
		s.indexer = idx
		s.seedFiles = seedFiles
	}
}

// WithMetrics records HTTP metrics with rec and serves gatherer on the
// configured metrics path.
func WithMetrics(rec *metrics.Recorder, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = rec
		s.gatherer = gatherer
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(engine *search.Engine, store catalog.Store, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		store:  store,
		config: cfg,
		logger: utils.OrNop(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.Search.Timeout > 0 {
		r.Use(middleware.Timeout(s.config.Search.Timeout))
	}
	r.Use(middleware.Compress(5))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearchGet)
		r.Post("/search", s.handleSearchPost)
		r.Get("/search/analyze", s.handleAnalyze)
		r.Get("/products/{id}", s.handleGetProduct)
		if s.indexer != nil {
			r.Post("/catalog/sync", s.handleSync)
		}
	})
	r.Get("/health", s.handleHealth)
	if s.gatherer != nil && s.config.Metrics.IsEnabled() {
		r.Handle(s.config.Metrics.Path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start starts the HTTP server and blocks until it stops. It returns nil after
// a graceful Stop.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
