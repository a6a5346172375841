// Package server provides the HTTP REST API for the interview coordinator.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coordinator/internal/assessment"
	"github.com/jonathan/interview-coordinator/internal/config"
	"github.com/jonathan/interview-coordinator/internal/db"
	"github.com/jonathan/interview-coordinator/internal/lifecycle"
	"github.com/jonathan/interview-coordinator/internal/llm"
	"github.com/jonathan/interview-coordinator/internal/notify"
	"github.com/jonathan/interview-coordinator/internal/rubric"
	"github.com/jonathan/interview-coordinator/internal/server/middleware"
)

// Store is the request persistence surface the handlers depend on. The
// embedded lifecycle.Store carries the version-checked write operations.
type Store interface {
	lifecycle.Store
	CreateRequest(ctx context.Context, candidateID uuid.UUID, candidateName, candidateEmail, field, level, topic string) (uuid.UUID, error)
	ListRequests(ctx context.Context, filters db.RequestFilters) ([]*lifecycle.Record, error)
	AssignInterviewer(ctx context.Context, id, interviewerID uuid.UUID, version int64) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	db         *db.DB
	store      Store
	registry   *rubric.Registry
	machine    *lifecycle.Machine
	sessions   *assessment.Manager
	gateway    assessment.Gateway
	llmClient  llm.Client

	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler

	log *zap.Logger
}

// Config holds server configuration
type Config struct {
	Addr        string
	DatabaseURL string
	APIKey      string
	SMTPAddr    string
	SMTPFrom    string
	Logger      *zap.Logger
}

// New creates a new server instance
func New(ctx context.Context, cfg Config) (*Server, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	registry, err := rubric.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load rubric templates: %w", err)
	}

	client, err := llm.NewClient(ctx, llm.DefaultGeminiConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	var notifier notify.Notifier
	if cfg.SMTPAddr != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	s := &Server{
		db:        database,
		store:     database,
		registry:  registry,
		machine:   lifecycle.NewMachine(database, notifier, log),
		sessions:  assessment.NewManager(),
		gateway:   llm.NewAssistant(client),
		llmClient: client,
		log:       log,
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.userService = NewUserService(database, passwordConfig)

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withLogging(s.withCORS(s.routes())),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // AI synthesis calls can run long
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// routes builds the router. Auth endpoints and health are public; every
// request and assessment endpoint requires a valid token.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.HandleFunc("GET /health", s.handleHealth)

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux.Handle("GET /templates", protected(s.handleListTemplates))

	// Interview request lifecycle
	mux.Handle("POST /requests", protected(s.handleCreateRequest))
	mux.Handle("GET /requests", protected(s.handleListRequests))
	mux.Handle("GET /requests/{id}", protected(s.handleGetRequest))
	mux.Handle("POST /requests/{id}/transition", protected(s.handleTransition))

	// Assessment sessions
	mux.Handle("POST /requests/{id}/assessment", protected(s.handleOpenAssessment))
	mux.Handle("GET /requests/{id}/assessment", protected(s.handleGetAssessment))
	mux.Handle("DELETE /requests/{id}/assessment", protected(s.handleDiscardAssessment))
	mux.Handle("POST /requests/{id}/assessment/score", protected(s.handleSetScore))
	mux.Handle("POST /requests/{id}/assessment/note", protected(s.handleSetNote))
	mux.Handle("POST /requests/{id}/assessment/suggest", protected(s.handleSuggestNote))
	mux.Handle("POST /requests/{id}/assessment/suggest-all", protected(s.handleSuggestAllNotes))
	mux.Handle("POST /requests/{id}/assessment/advance", protected(s.handleAdvanceSection))
	mux.Handle("POST /requests/{id}/assessment/retreat", protected(s.handleRetreatSection))
	mux.Handle("POST /requests/{id}/assessment/synthesize", protected(s.handleSynthesizeReport))
	mux.Handle("PUT /requests/{id}/assessment/report", protected(s.handleEditReport))
	mux.Handle("POST /requests/{id}/assessment/finalize", protected(s.handleFinalize))

	return mux
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.llmClient != nil {
		if err := s.llmClient.Close(); err != nil {
			s.log.Warn("failed to close AI client", zap.Error(err))
		}
	}
	if s.db != nil {
		s.db.Close()
	}

	s.log.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListTemplates enumerates the registered rubric template keys.
func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"count":     s.registry.Size(),
		"templates": s.registry.Keys(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
