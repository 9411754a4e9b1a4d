// Package server provides the HTTP QA service over the ingestion and
// retrieval pipelines.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"docqa/internal/port"
	"docqa/internal/usecase"
)

// Server exposes ingestion, deletion, listing, retrieval, and QA over
// HTTP. Mutating handlers are serialized with a mutex: the stores
// assume a single ingestion or deletion in flight at a time, and the
// server is the caller responsible for enforcing that. Retrieval runs
// unlocked.
type Server struct {
	ingest   *usecase.IngestUseCase
	retrieve *usecase.RetrieveUseCase
	answerer port.Answerer
	topK     int
	logger   *zap.Logger
	server   *http.Server

	mu sync.Mutex // guards ingest/delete
}

// New creates a server with the given dependencies.
func New(
	ingest *usecase.IngestUseCase,
	retrieve *usecase.RetrieveUseCase,
	answerer port.Answerer,
	topK int,
	logger *zap.Logger,
) *Server {
	if topK <= 0 {
		topK = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ingest:   ingest,
		retrieve: retrieve,
		answerer: answerer,
		topK:     topK,
		logger:   logger,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Post("/api/v1/documents", s.handleIngest)
	r.Get("/api/v1/documents", s.handleList)
	r.Delete("/api/v1/documents/{name}", s.handleDelete)
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/qa", s.handleQA)

	return r
}

// Start starts the HTTP server on addr and blocks until it stops.
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
