// Package server provides the HTTP API for grokiwiki.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AppleLamps/grokiwiki/internal/config"
	"github.com/AppleLamps/grokiwiki/internal/fetcher"
	"github.com/AppleLamps/grokiwiki/internal/llm"
	"github.com/AppleLamps/grokiwiki/internal/slugindex"
)

// Server is the HTTP server for the grokiwiki API.
type Server struct {
	index   slugindex.SlugIndex
	wiki    *fetcher.WikipediaClient
	grok    *fetcher.GrokipediaClient
	llm     *llm.Client
	cfg     *config.Config
	logger  *zap.Logger
	metrics *Metrics
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	index slugindex.SlugIndex,
	wiki *fetcher.WikipediaClient,
	grok *fetcher.GrokipediaClient,
	llmClient *llm.Client,
	cfg *config.Config,
	logger *zap.Logger,
	metrics *Metrics,
) *Server {
	return &Server{
		index:   index,
		wiki:    wiki,
		grok:    grok,
		llm:     llmClient,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/suggest", s.handleSuggest)
	r.Get("/api/v1/resolve", s.handleResolve)
	r.Get("/api/v1/slugs", s.handleListSlugs)
	r.Get("/api/v1/articles/{slug}", s.handleGetArticle)
	r.Post("/api/v1/compare", s.handleCompare)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
