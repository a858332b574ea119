package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/session"
)

// maxBody caps request bodies
const maxBody = 1 << 20

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	Transcript string `json:"transcript"`
}

// SessionResponse is the body of POST /sessions
type SessionResponse struct {
	ID string `json:"id"`
}

// RootHandler reports that the API is up.
// GET /
func RootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "MedAlert API is running"})
	}
}

// HealthHandler reports service counters.
// GET /api/health
func HealthHandler(sessions *session.Manager, classifier *classify.Classifier, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": sessions.Len(),
			"rules":    classifier.Catalog().Len(),
			"clients":  hub.Count(),
		})
	}
}

// AnalyzeHandler classifies a transcript for the request's session.
// POST /analyze
// Empty transcripts are ignored with 204.
func AnalyzeHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, ok := sessions.Get(sessionID(r)).Submit(req.Transcript)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// RulesHandler lists the active rule catalog in evaluation order.
// GET /rules
func RulesHandler(classifier *classify.Classifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, classifier.Catalog().Records())
	}
}

// HistoryHandler returns the session's events newest first as a bare
// array, the shape history.HTTPFetcher reads.
// GET /history?limit=N
// A missing or zero limit returns everything. Unknown sessions read as
// empty and are not created.
func HistoryHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
				return
			}
			limit = n
		}

		evs := sessions.View(sessionID(r)).Events
		if limit > 0 && limit < len(evs) {
			evs = evs[:limit]
		}
		writeJSON(w, http.StatusOK, evs)
	}
}

// ClearHistoryHandler empties the session history.
// DELETE /history
func ClearHistoryHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.Get(sessionID(r)).ClearHistory()
		w.WriteHeader(http.StatusNoContent)
	}
}

// StatsHandler returns risk counts for the session.
// GET /stats
func StatsHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessions.View(sessionID(r)).Counts)
	}
}

// EscalationHandler returns the session's escalation state.
// GET /escalation
func EscalationHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessions.State(sessionID(r)))
	}
}

// DismissHandler acknowledges the session's high-risk alert.
// POST /escalation/dismiss
func DismissHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessions.Get(sessionID(r))
		s.Dismiss()
		writeJSON(w, http.StatusOK, s.Escalation())
	}
}

// EmergencyHandler runs an emergency context through the executor.
// POST /agent/emergency
func EmergencyHandler(executor Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if executor == nil {
			writeError(w, http.StatusServiceUnavailable, "emergency executor not configured")
			return
		}

		var ec escalate.EmergencyContext
		if err := decodeJSON(r, &ec); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		log.Debug().Str("reason", ec.Reason).Str("risk", ec.Risk).Msg("Received emergency trigger")
		writeJSON(w, http.StatusOK, executor.Execute(r.Context(), ec))
	}
}

// NewSessionHandler creates a session with a fresh ID.
// POST /sessions
func NewSessionHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessions.Get(session.NewID())
		writeJSON(w, http.StatusCreated, SessionResponse{ID: s.ID()})
	}
}

// DeleteSessionHandler closes a session and drops its in-memory state.
// DELETE /sessions/{id}
func DeleteSessionHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sessions.Delete(chi.URLParam(r, "id")) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// EventsHandler provides the SSE event stream.
// GET /events
// With a session header or ?session= the stream is limited to that
// session's events plus service-wide ones.
func EventsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		// Send initial comment to establish connection
		fmt.Fprintf(w, ": connected\n\n")
		flusher.Flush()

		id := middleware.GetReqID(r.Context())
		if id == "" {
			id = session.NewID()
		}
		client := NewClient(id, requestedSession(r))
		hub.Register(client)
		defer hub.Unregister(client)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-client.events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					log.Warn().Err(err).Str("type", string(event.Type)).Msg("Failed to encode event")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
				flusher.Flush()
			}
		}
	}
}

// sessionID returns the requested session, or the default one
func sessionID(r *http.Request) string {
	if id := requestedSession(r); id != "" {
		return id
	}
	return session.DefaultID
}

func requestedSession(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("session"))
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
