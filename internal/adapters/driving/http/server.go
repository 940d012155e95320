package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/swaggo/swag"

	_ "github.com/custodia-labs/atlas-core/docs"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driving"
)

// Readiness reports backend availability for the readiness endpoint
type Readiness interface {
	Ready() bool
	Readiness() map[string]bool
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	router          *http.ServeMux
	version         string
	shutdownTimeout time.Duration
	corsOrigins     []string
	logger          *slog.Logger

	// Services
	sessionService   driving.SessionService
	admissionService driving.AdmissionService
	chatService      driving.ChatService
	searchService    driving.SearchService
	analyzer         driving.QueryAnalyzer

	// Infrastructure
	readiness Readiness    // nil reports ready
	metrics   http.Handler // nil disables /metrics
}

// Config holds server configuration
type Config struct {
	Addr              string
	Version           string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	CORSOrigins       []string
	Logger            *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		Version:           "dev",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		CORSOrigins:       []string{"*"},
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	sessionService driving.SessionService,
	admissionService driving.AdmissionService,
	chatService driving.ChatService,
	searchService driving.SearchService,
	analyzer driving.QueryAnalyzer,
	readiness Readiness,
	metrics http.Handler,
) *Server {
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = defaults.CORSOrigins
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		shutdownTimeout:  cfg.ShutdownTimeout,
		corsOrigins:      cfg.CORSOrigins,
		logger:           cfg.Logger.With("component", "http"),
		sessionService:   sessionService,
		admissionService: admissionService,
		chatService:      chatService,
		searchService:    searchService,
		analyzer:         analyzer,
		readiness:        readiness,
		metrics:          metrics,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		// No WriteTimeout: chat streams stay open for the whole queue wait and generation
		IdleTimeout: 60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewCORSMiddleware(s.corsOrigins).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	return h
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.sessionService)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics)
	}
	s.router.HandleFunc("GET /swagger/doc.json", s.handleAPIDoc)

	// Session endpoints
	s.router.HandleFunc("POST /api/v1/session/connect", s.handleConnect)
	s.router.Handle("POST /api/v1/session/disconnect", authed(s.handleDisconnect))
	s.router.Handle("POST /api/v1/session/heartbeat", authed(s.handleHeartbeat))

	// Inference queue endpoints
	s.router.Handle("GET /api/v1/queue/status", authed(s.handleQueueStatus))
	s.router.Handle("POST /api/v1/queue/turn", authed(s.handleRequestTurn))
	s.router.Handle("POST /api/v1/queue/finish", authed(s.handleFinishTurn))

	// Answer and search endpoints
	s.router.Handle("POST /api/v1/chat/stream", authed(s.handleChatStream))
	s.router.Handle("POST /api/v1/search", authed(s.handleSearch))
	s.router.Handle("POST /api/v1/query/analyze", authed(s.handleAnalyze))
	s.router.Handle("GET /api/v1/collections", authed(s.handleCollections))
}

// handleAPIDoc serves the registered OpenAPI document
func (s *Server) handleAPIDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
