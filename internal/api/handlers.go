package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/dispatch"
	"github.com/mattjoyce/frontctl/internal/events"
	"github.com/mattjoyce/frontctl/internal/journal"
	"github.com/mattjoyce/frontctl/internal/protocol"
	"github.com/mattjoyce/frontctl/internal/queue"
)

const (
	maxSubmitBody       = 1 << 20
	defaultJournalLimit = 50
	maxJournalLimit     = 1000
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	stats := s.dispatcher.Stats()
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Commands:      len(s.commands.Names()),
		Dispatcher:    stats,
	}

	code := http.StatusOK
	if stats.Lifecycle != dispatch.Running.String() {
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, resp)
}

// handleListCommands handles GET /commands.
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	names := s.commands.Names()
	resp := CommandListResponse{Commands: make([]CommandSummary, 0, len(names))}
	for _, name := range names {
		desc, err := s.commands.Resolve(name)
		if err != nil {
			continue
		}
		resp.Commands = append(resp.Commands, CommandSummary{
			Name:        desc.Name,
			Description: desc.Description,
			TimeoutMS:   desc.Timeout.Milliseconds(),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleSubmit handles POST /commands/{name}.
//
// By default the request is queued and 202 returned. ?wait=true blocks until
// the command's command.ended notification; ?nowait=true fails with 503
// instead of waiting for queue space.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.commands.Resolve(name); err != nil {
		s.writeError(w, http.StatusNotFound, "command not found")
		return
	}

	body, err := protocol.DecodeSubmitFor(http.MaxBytesReader(w, r.Body, maxSubmitBody), name)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := body.Request()
	ev := queue.ForRequest(req, "api")
	wait := r.URL.Query().Get("wait") == "true"
	nowait := r.URL.Query().Get("nowait") == "true"

	// Subscribe before submitting so the ended notification cannot be missed.
	var notifications <-chan events.Event
	if wait {
		ch, cancel := s.events.SubscribeBuffered(256)
		defer cancel()
		notifications = ch
	}

	if nowait {
		if !s.dispatcher.TrySubmit(ev) {
			respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "queue full", RequestID: req.ID})
			return
		}
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.WaitTimeout)
		err := s.dispatcher.Submit(ctx, ev)
		cancel()
		if err != nil {
			s.logger.Warn("submit failed", "command", name, "request_id", req.ID, "error", err)
			msg := "timed out waiting for queue space"
			if errors.Is(err, queue.ErrClosed) {
				msg = "dispatcher stopped"
			}
			respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: msg, RequestID: req.ID})
			return
		}
	}

	if !wait {
		respondJSON(w, http.StatusAccepted, protocol.SubmitAccepted{
			RequestID: req.ID,
			Name:      req.Name,
			Status:    "queued",
		})
		return
	}

	resp, err := s.awaitResponse(r.Context(), notifications, req.ID)
	if err != nil {
		respondJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), RequestID: req.ID})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = protocol.EncodeResponse(w, resp)
}

var errWaitTimeout = errors.New("timed out waiting for response")

func (s *Server) awaitResponse(ctx context.Context, ch <-chan events.Event, requestID string) (command.Response, error) {
	timer := time.NewTimer(s.config.WaitTimeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return command.Response{}, errWaitTimeout
			}
			if ev.Type != dispatch.NotifyEnded {
				continue
			}
			var resp command.Response
			if err := json.Unmarshal(ev.Data, &resp); err != nil {
				s.logger.Warn("undecodable command.ended notification", "event_id", ev.ID, "error", err)
				continue
			}
			if resp.RequestID == requestID {
				return resp, nil
			}
		case <-timer.C:
			return command.Response{}, errWaitTimeout
		case <-ctx.Done():
			return command.Response{}, ctx.Err()
		}
	}
}

// handleGetJournal handles GET /journal/{requestID}.
func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	requestID := chi.URLParam(r, "requestID")
	entry, err := s.journal.Get(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "request not found")
			return
		}
		s.logger.Error("failed to retrieve journal entry", "request_id", requestID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve journal entry")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// handleRecentJournal handles GET /journal?limit=N.
func (s *Server) handleRecentJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	limit := defaultJournalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxJournalLimit {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list journal entries", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list journal entries")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleOpenAPI handles GET /openapi.json.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(s.commands))
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
