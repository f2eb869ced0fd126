// Package web provides an HTTP status server for the lutron-bridge daemon.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sweeney/lutron-bridge/internal/logbook"
	"github.com/sweeney/lutron-bridge/internal/status"
)

const (
	defaultLogbookLimit = 50
	maxLogbookLimit     = 1000
)

// LogbookReader reads recent logbook entries.
type LogbookReader interface {
	Recent(n int) ([]logbook.Entry, error)
}

// Server serves the status page, JSON endpoints and the live activity feed.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	logbook    LogbookReader
	hub        *Hub
	log        zerolog.Logger
}

// New creates a Server that reads state from the given tracker and
// logbook. lb may be nil.
func New(addr string, tracker *status.Tracker, lb LogbookReader, log zerolog.Logger) *Server {
	s := &Server{
		tracker: tracker,
		logbook: lb,
		hub:     NewHub(log),
		log:     log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/index.json", s.handleJSON)
	r.Get("/logbook.json", s.handleLogbook)
	r.Get("/ws", s.hub.ServeWS)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ObserveActivity forwards a published button event to websocket clients.
func (s *Server) ObserveActivity(event string, data map[string]string, at time.Time) {
	s.hub.Broadcast(event, data, at)
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown closes websocket clients and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		s.log.Error().Err(err).Msg("render status page")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleLogbook(w http.ResponseWriter, r *http.Request) {
	if s.logbook == nil {
		http.Error(w, "logbook disabled", http.StatusNotFound)
		return
	}

	limit := defaultLogbookLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLogbookLimit)
	}

	entries, err := s.logbook.Recent(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("read logbook")
		http.Error(w, "logbook unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []logbook.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Entries []logbook.Entry `json:"entries"`
	}{entries})
}
