// Package api provides the HTTP REST API of the adaptive learning service.
//
// Endpoints:
//
//	GET  /health                  liveness probe
//	GET  /ready                   readiness probe (pings the database)
//	POST /api/feedback            process one feedback signal
//	GET  /api/state               current comprehension state
//	POST /api/prompt              build the adaptive prompt without generating
//	POST /api/personalize         full personalization pipeline
//	POST /api/rank                conversation-aware document ranking
//	POST /api/documents           add a document to the store
//	POST /api/documents/feedback  record per-document feedback
//
// File structure:
//   - server.go: server setup and lifecycle
//   - middleware.go: recovery, logging, rate limiting
//   - health.go: health probes
//   - feedback.go: comprehension feedback and state endpoints
//   - prompt.go: prompt and personalization endpoints
//   - rank.go: document and ranking endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/egitsel/aprag/internal/ebars"
	"github.com/egitsel/aprag/internal/log"
	"github.com/egitsel/aprag/internal/personalize"
	"github.com/egitsel/aprag/internal/retrieval"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = ":8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. Model
	// generation can take a while, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Deps are the wired components the server exposes over HTTP.
type Deps struct {
	Pool        *pgxpool.Pool
	Feedback    *ebars.Handler
	Personalize *personalize.Service
	Ranker      *retrieval.Ranker
	Documents   *retrieval.Store
	Logger      log.Logger

	// RateLimitRPS and RateLimitBurst configure the global request
	// limiter. Non-positive values disable limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server is the HTTP server for the REST API.
type Server struct {
	mux    *http.ServeMux
	deps   Deps
	logger log.Logger
}

// NewServer creates a server with all routes registered.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.NewNop()
	}
	mux := http.NewServeMux()
	s := &Server{mux: mux, deps: deps, logger: deps.Logger}

	NewHealthHandler(deps.Pool, deps.Logger).RegisterRoutes(mux)
	NewFeedbackHandler(deps.Feedback, deps.Logger).RegisterRoutes(mux)
	NewPromptHandler(deps.Feedback, deps.Personalize, deps.Ranker, deps.Logger).RegisterRoutes(mux)
	NewRankHandler(deps.Ranker, deps.Documents, deps.Logger).RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → rate limit → logging → handler.
func (s *Server) Handler() http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		recoveryMiddleware(s.logger),
	}
	if s.deps.RateLimitRPS > 0 && s.deps.RateLimitBurst > 0 {
		middlewares = append(middlewares,
			rateLimitMiddleware(s.deps.RateLimitRPS, s.deps.RateLimitBurst))
	}
	middlewares = append(middlewares, loggingMiddleware(s.logger))
	return chain(s.mux, middlewares...)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
