package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	ingestionService driving.IngestionService
	quizService      driving.QuizService
	retrievalService driving.RetrievalService
	sessionService   driving.SessionService
	feedbackService  driving.FeedbackService
	capabilities     driving.CapabilityService

	// Infrastructure
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	ingestionService driving.IngestionService,
	quizService driving.QuizService,
	retrievalService driving.RetrievalService,
	sessionService driving.SessionService,
	feedbackService driving.FeedbackService,
	capabilities driving.CapabilityService,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		logger:           logger,
		ingestionService: ingestionService,
		quizService:      quizService,
		retrievalService: retrievalService,
		sessionService:   sessionService,
		feedbackService:  feedbackService,
		capabilities:     capabilities,
		db:               db,
		redisClient:      redisClient,
	}

	s.setupRoutes()

	recovery := NewRecoveryMiddleware(logger)
	logging := NewLoggingMiddleware(logger)
	cors := NewCORSMiddleware(cfg.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      recovery.Handler(logging.Handler(cors.Handler(s.router))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Document endpoints
	s.router.HandleFunc("POST /api/v1/documents", s.handleIngestDocument)
	s.router.HandleFunc("GET /api/v1/documents/{id}", s.handleGetDocument)
	s.router.HandleFunc("DELETE /api/v1/documents/{id}", s.handleDeleteDocument)
	s.router.HandleFunc("DELETE /api/v1/documents/{id}/quizzes", s.handleInvalidateQuizzes)
	s.router.HandleFunc("POST /api/v1/documents/{id}/retrieve", s.handleRetrieve)

	// Quiz endpoints
	s.router.HandleFunc("POST /api/v1/quizzes", s.handleGenerateQuiz)

	// Session endpoints
	s.router.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("POST /api/v1/sessions/{id}/answers", s.handleSubmitAnswer)
	s.router.HandleFunc("POST /api/v1/sessions/{id}/complete", s.handleCompleteSession)
	s.router.HandleFunc("GET /api/v1/sessions/{id}/results", s.handleSessionResults)
	s.router.HandleFunc("GET /api/v1/sessions/{id}/feedback", s.handleListFeedback)

	// Feedback endpoint
	s.router.HandleFunc("POST /api/v1/feedback", s.handleSubmitFeedback)

	// Capability endpoints
	s.router.HandleFunc("GET /api/v1/capabilities", s.handleListCapabilities)
	s.router.HandleFunc("POST /api/v1/capabilities", s.handleDispatchCapability)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or listen failure
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
