package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/dispatch"
	"github.com/mattjoyce/frontctl/internal/events"
	"github.com/mattjoyce/frontctl/internal/journal"
	"github.com/mattjoyce/frontctl/internal/queue"
)

// Dispatcher is the producer side of the dispatch loop.
type Dispatcher interface {
	Submit(ctx context.Context, ev queue.Event) error
	TrySubmit(ev queue.Event) bool
	Stats() dispatch.Stats
}

// CommandCatalog lists registered commands.
type CommandCatalog interface {
	Names() []string
	Resolve(name string) (command.Descriptor, error)
}

// JournalReader looks up recorded commands.
type JournalReader interface {
	Get(ctx context.Context, requestID string) (*journal.Entry, error)
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Config holds API server configuration
type Config struct {
	Listen string
	// APIKey is the bearer token required on every route except /healthz.
	// Empty disables auth.
	APIKey string
	// WaitTimeout caps how long ?wait=true blocks.
	WaitTimeout time.Duration
}

// Server represents the HTTP API server
type Server struct {
	config     Config
	dispatcher Dispatcher
	commands   CommandCatalog
	journal    JournalReader
	events     *events.Hub
	logger     *slog.Logger
	server     *http.Server
	startedAt  time.Time
}

// New creates a new API server instance. jr may be nil when the journal is
// disabled.
func New(config Config, d Dispatcher, commands CommandCatalog, hub *events.Hub, jr JournalReader, logger *slog.Logger) *Server {
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = 30 * time.Second
	}
	if hub == nil {
		hub = events.NewHub(256)
	}
	return &Server{
		config:     config,
		dispatcher: d,
		commands:   commands,
		journal:    jr,
		events:     hub,
		logger:     logger.With("component", "api"),
		startedAt:  time.Now(),
	}
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server (blocking)
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /events streams stay open until the client leaves.
		IdleTimeout: 60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/commands", s.handleListCommands)
		r.Post("/commands/{name}", s.handleSubmit)
		r.Get("/events", s.handleEvents)
		r.Get("/journal", s.handleRecentJournal)
		r.Get("/journal/{requestID}", s.handleGetJournal)
		r.Get("/openapi.json", s.handleOpenAPI)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"http_request_id", middleware.GetReqID(r.Context()),
		)
	})
}
