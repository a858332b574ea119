// Package web serves the triage HTTP API and the live event stream.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/session"
)

// DefaultAddr is used when Config.Addr is empty
const DefaultAddr = ":8080"

// SessionHeader selects the session a request acts on
const SessionHeader = "X-Session-ID"

// Executor runs an emergency context directly, bypassing the escalation
// state machine
type Executor interface {
	Execute(ctx context.Context, ec escalate.EmergencyContext) escalate.CallStatus
}

// Config holds the server's collaborators
type Config struct {
	Addr string

	Sessions   *session.Manager
	Classifier *classify.Classifier
	Executor   Executor

	// Hub streams events to browsers. A new hub is created when nil.
	Hub *Hub
}

// Server is the main web server that coordinates all components.
type Server struct {
	addr string

	sessions   *session.Manager
	classifier *classify.Classifier
	executor   Executor
	hub        *Hub

	router       chi.Router
	httpServer   *http.Server
	httpListener net.Listener
}

// New creates a new web server with the given configuration.
// Does not start any servers - call Start() for that.
func New(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("web: session manager is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classify.NewStatic(nil)
	}
	if cfg.Hub == nil {
		cfg.Hub = NewHub()
	}

	s := &Server{
		addr:       cfg.Addr,
		sessions:   cfg.Sessions,
		classifier: cfg.Classifier,
		executor:   cfg.Executor,
		hub:        cfg.Hub,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors)

	r.Get("/", RootHandler())
	r.Get("/api/health", HealthHandler(s.sessions, s.classifier, s.hub))
	r.Post("/analyze", AnalyzeHandler(s.sessions))
	r.Get("/rules", RulesHandler(s.classifier))
	r.Get("/history", HistoryHandler(s.sessions))
	r.Delete("/history", ClearHistoryHandler(s.sessions))
	r.Get("/stats", StatsHandler(s.sessions))
	r.Get("/escalation", EscalationHandler(s.sessions))
	r.Post("/escalation/dismiss", DismissHandler(s.sessions))
	r.Post("/agent/emergency", EmergencyHandler(s.executor))
	r.Get("/events", EventsHandler(s.hub))
	r.Post("/sessions", NewSessionHandler(s.sessions))
	r.Delete("/sessions/{id}", DeleteSessionHandler(s.sessions))
	return r
}

// Handler returns the server's router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the SSE hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening on HTTP and runs the SSE hub.
// Non-blocking - the server runs in goroutines.
func (s *Server) Start() error {
	go s.hub.Run()

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.hub.Stop()
		return fmt.Errorf("HTTP listen: %w", err)
	}
	s.httpListener = listener

	// Update addr with actual address (important for ephemeral ports)
	s.addr = listener.Addr().String()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", s.addr).Msg("HTTP server stopped")
		}
	}()

	log.Info().Str("addr", s.addr).Msg("MedAlert API listening")
	return nil
}

// Stop performs graceful shutdown.
// The hub is stopped first so open event streams return.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (s *Server) Addr() string {
	return s.addr
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// cors allows any origin, as browser clients are served separately
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
