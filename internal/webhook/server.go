package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/events"
	"github.com/mattjoyce/frontctl/internal/params"
	"github.com/mattjoyce/frontctl/internal/queue"
)

// Server serves the configured webhook endpoints.
type Server struct {
	config    Config
	submitter Submitter
	events    events.Publisher
	logger    *slog.Logger
	server    *http.Server

	endpoints map[string]*EndpointConfig
}

// New builds a Server. pub may be nil.
func New(cfg Config, sub Submitter, pub events.Publisher, logger *slog.Logger) *Server {
	endpoints := make(map[string]*EndpointConfig, len(cfg.Endpoints))
	for i := range cfg.Endpoints {
		ep := &cfg.Endpoints[i]
		if ep.MaxBodySize <= 0 {
			ep.MaxBodySize = defaultMaxBodySize
		}
		endpoints[ep.Path] = ep
	}

	return &Server{
		config:    cfg,
		submitter: sub,
		events:    pub,
		logger:    logger.With("component", "webhook"),
		endpoints: endpoints,
	}
}

const defaultMaxBodySize = 1 << 20

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start serves until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen, "endpoints", len(s.endpoints))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	for path := range s.endpoints {
		r.Post(path, s.handleWebhook)
	}

	return r
}

// loggingMiddleware logs request metadata only; bodies may carry secrets.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"http_request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	endpoint, ok := s.endpoints[r.URL.Path]
	if !ok {
		s.respondError(w, http.StatusNotFound, "endpoint not found")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, endpoint.MaxBodySize+1))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > endpoint.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	signature := r.Header.Get(endpoint.SignatureHeader)
	if err := verifySignature(body, signature, endpoint.Secret); err != nil {
		s.logger.Warn("webhook signature rejected",
			"path", r.URL.Path,
			"header", endpoint.SignatureHeader,
			"missing", signature == "",
		)
		s.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	req := command.NewRequest(endpoint.Command, bodyParams(body))
	if !s.submitter.TrySubmit(queue.ForRequest(req, "webhook:"+endpoint.Path)) {
		s.logger.Warn("webhook dropped, queue full",
			"path", endpoint.Path,
			"command", endpoint.Command,
			"request_id", req.ID,
		)
		s.publish("webhook.rejected", map[string]any{
			"path":       endpoint.Path,
			"command":    endpoint.Command,
			"request_id": req.ID,
			"reason":     "queue_full",
		})
		w.Header().Set("Retry-After", "1")
		s.respondError(w, http.StatusServiceUnavailable, "queue full")
		return
	}

	s.logger.Info("webhook request queued",
		"path", endpoint.Path,
		"command", endpoint.Command,
		"request_id", req.ID,
	)
	s.respondJSON(w, http.StatusAccepted, TriggerResponse{RequestID: req.ID, Command: endpoint.Command})
}

// bodyParams decodes a JSON object body into params. Anything else is kept
// verbatim under "body".
func bodyParams(body []byte) params.Bag {
	var p params.Bag
	if len(body) > 0 && json.Unmarshal(body, &p) == nil {
		return p
	}
	return params.Bag{}.With("body", params.String(string(body)))
}

func (s *Server) publish(name string, payload any) {
	if s.events != nil {
		s.events.Publish(name, payload)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
