// Package server exposes the poller's state and the confirm action over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazz-dev/sitewatch/internal/outcome"
	"github.com/hazz-dev/sitewatch/internal/scheduler"
	"github.com/hazz-dev/sitewatch/internal/storage"
)

// ServerStore defines the storage queries the server needs.
type ServerStore interface {
	LatestPoll(ctx context.Context) (*storage.Poll, error)
	History(ctx context.Context, limit, offset int) ([]storage.Poll, int, error)
	Counts(ctx context.Context) (map[outcome.Outcome]int, error)
}

// Controller is the scheduler surface the server drives.
type Controller interface {
	Policy() scheduler.Policy
	Enabled() bool
	NextPollAt() (time.Time, bool)
	Confirm() error
}

// Server holds the chi router and its dependencies.
type Server struct {
	store   ServerStore
	ctrl    Controller
	metrics http.Handler
	router  chi.Router
	logger  *slog.Logger
}

// New creates a new Server and registers all routes. metrics may be nil, in
// which case /metrics is not served.
func New(store ServerStore, ctrl Controller, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:   store,
		ctrl:    ctrl,
		metrics: metrics,
		router:  chi.NewRouter(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/polls", s.handleListPolls)
	r.Post("/api/confirm", s.handleConfirm)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
}

// --- Response helpers ---

type envelope struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statusResponse struct {
	URL        string         `json:"url"`
	Periodic   bool           `json:"periodic"`
	Enabled    bool           `json:"enabled"`
	MinDelay   string         `json:"min_delay"`
	MaxDelay   string         `json:"max_delay"`
	NextPollAt *time.Time     `json:"next_poll_at"`
	LastPoll   *storage.Poll  `json:"last_poll"`
	Counts     map[string]int `json:"counts"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.LatestPoll(r.Context())
	if err != nil {
		s.logger.Error("LatestPoll", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	counts, err := s.store.Counts(r.Context())
	if err != nil {
		s.logger.Error("Counts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	p := s.ctrl.Policy()
	lo, hi := p.DelayRange()
	resp := statusResponse{
		URL:      p.URL,
		Periodic: p.Periodic,
		Enabled:  s.ctrl.Enabled(),
		MinDelay: strconv.FormatInt(lo, 10) + " " + p.RandomnessUnit.String(),
		MaxDelay: strconv.FormatInt(hi, 10) + " " + p.RandomnessUnit.String(),
		LastPoll: latest,
		Counts:   make(map[string]int, len(counts)),
	}
	if at, ok := s.ctrl.NextPollAt(); ok {
		resp.NextPollAt = &at
	}
	for o, n := range counts {
		resp.Counts[string(o)] = n
	}

	writeJSON(w, http.StatusOK, resp)
}

type historyResponse struct {
	Polls []storage.Poll `json:"polls"`
	Total int            `json:"total"`
}

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 1000

	limit := 50
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		if n > maxLimit {
			n = maxLimit
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset parameter")
			return
		}
		offset = n
	}

	polls, total, err := s.store.History(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("History", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if polls == nil {
		polls = []storage.Poll{}
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Polls: polls,
		Total: total,
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	err := s.ctrl.Confirm()
	switch {
	case err == nil:
		s.logger.Info("scheduling confirmed over HTTP", "remote", r.RemoteAddr)
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": true})
	case errors.Is(err, scheduler.ErrAlreadyEnabled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scheduler.ErrConfirmUnsupported):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Confirm", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}
