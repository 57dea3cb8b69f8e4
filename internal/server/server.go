// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and
// routes, and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	cmd/canvaid creates:  config.Config → server.Config
//	Server.New() creates: sqlite.DB → services (+ metrics.Collector) → handlers
//
// All dependencies are wired in one place (New/setupRoutes), the
// "composition root".
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/canvaid/internal/handler"
	"github.com/sakif/canvaid/internal/metrics"
	"github.com/sakif/canvaid/internal/middleware"
	sqliteRepo "github.com/sakif/canvaid/internal/repository/sqlite"
	"github.com/sakif/canvaid/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Port   int
	DBPath string
	// AllowedOrigins enables CORS for a browser client served elsewhere.
	AllowedOrigins []string
	// APIURL is the API base the canvas page talks to. Empty means same origin.
	APIURL string
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. It is closed when Start returns,
// after in-flight requests have drained.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	metrics *metrics.Collector
}

// New opens the database and wires every layer on top of it.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                              → Board list page (HTML)
// GET    /canvas/{id}                   → Canvas page (HTML)
// GET    /healthz                       → Liveness + database ping
// GET    /metrics                       → Prometheus exposition
// GET    /api/boards                    → List boards
// POST   /api/boards                    → Create board
// GET    /api/boards/{id}               → Board with sections, cards, connections
// PUT    /api/boards/{id}               → Update board fields / viewport
// DELETE /api/boards/{id}               → Delete board (cascades)
// GET    /api/boards/{id}/thumbnail.png → Rendered board preview
// POST   /api/sections, PUT|DELETE /api/sections/{id}
// POST   /api/cards,    PUT|DELETE /api/cards/{id}
// POST   /api/connections, DELETE /api/connections/{id}
// GET    /api/notes, POST /api/notes
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger and Metrics: see the final status of every request
// 5. CORS: answers preflight requests before they reach a handler
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)

	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))

	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// === Services ===
	// s.db implements every repository interface; each service only sees
	// the one it needs.
	boards := service.NewBoardService(s.db, s.metrics, s.logger)
	api := handler.API{
		Boards:      handler.NewBoardHandler(boards, s.logger),
		Sections:    handler.NewSectionHandler(service.NewSectionService(s.db, s.metrics, s.logger), s.logger),
		Cards:       handler.NewCardHandler(service.NewCardService(s.db, s.metrics, s.logger), s.logger),
		Connections: handler.NewConnectionHandler(service.NewConnectionService(s.db, s.metrics, s.logger), s.logger),
		Notes:       handler.NewNoteHandler(service.NewNoteService(s.db, s.metrics, s.logger), s.logger),
	}

	// === Page Routes ===
	pages, err := handler.NewPageHandler(boards, s.config.APIURL, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	s.router.Get("/", pages.HandleBoards)
	s.router.Get("/canvas/{id}", pages.HandleCanvas)

	// === Operational Routes ===
	s.router.Get("/healthz", handler.NewHealthHandler(s.db, s.logger).HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	// === API Routes ===
	s.router.Route("/api", api.Routes)

	return nil
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Run(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

// Close releases the database when the server is discarded without running.
func (s *Server) Close() error {
	return s.db.Close()
}
