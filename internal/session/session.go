// Package session ties classification, escalation and history together
// for one user's interaction.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/events"
	"github.com/RevCBH/medalert/internal/history"
)

// Result is what a caller presents after a submission
type Result struct {
	Advisory     classify.Advisory `json:"advisory"`
	Escalation   escalate.State    `json:"escalation"`
	Event        history.Event     `json:"event"`
	AlertVisible bool              `json:"alert_visible"`
	Matched      []string          `json:"matched,omitempty"`
}

// Emitter publishes lifecycle events. *events.Bus satisfies it.
type Emitter interface {
	Emit(e events.Event) bool
}

// Archiver persists history beyond the process. *history.Archive
// satisfies it.
type Archiver interface {
	Append(session string, e history.Event) error
	List(session string, limit int) ([]history.Event, error)
	Clear(session string) (int64, error)
}

// Options configures sessions
type Options struct {
	Classifier *classify.Classifier
	Escalation escalate.ControllerConfig
	Archive    Archiver
	Bus        Emitter
	Now        func() time.Time
}

// AdvisoryPayload accompanies events.AdvisoryIssued
type AdvisoryPayload struct {
	Transcript string            `json:"transcript"`
	Advisory   classify.Advisory `json:"advisory"`
	Matched    []string          `json:"matched"`
}

// EscalationPayload accompanies escalation events
type EscalationPayload struct {
	Reason string         `json:"reason,omitempty"`
	State  escalate.State `json:"state"`
}

// Session owns one history store and one escalation controller
type Session struct {
	id         string
	classifier *classify.Classifier
	history    *history.Store
	escalation *escalate.Controller
	archive    Archiver
	bus        Emitter
	now        func() time.Time

	mu sync.Mutex // Serializes submissions so history order is submission order
}

// New creates a session with its own state
func New(id string, opts Options) *Session {
	s := &Session{
		id:         id,
		classifier: opts.Classifier,
		history:    history.NewStore(),
		archive:    opts.Archive,
		bus:        opts.Bus,
		now:        opts.Now,
	}
	if s.classifier == nil {
		s.classifier = classify.NewStatic(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}

	cfg := opts.Escalation
	cfg.OnChange = s.onEscalation
	s.escalation = escalate.NewController(cfg)
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Submit classifies transcript, escalates high-risk advisories without
// waiting for the call, and records the result. Empty or whitespace-only
// input does nothing and returns false.
func (s *Session) Submit(transcript string) (Result, bool) {
	if strings.TrimSpace(transcript) == "" {
		s.emit(events.NewEvent(events.TranscriptIgnored, s.id))
		return Result{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match := s.classifier.Explain(transcript)
	adv := match.Advisory
	s.emit(events.NewEvent(events.AdvisoryIssued, s.id).WithPayload(AdvisoryPayload{
		Transcript: transcript,
		Advisory:   adv,
		Matched:    match.Matched,
	}))

	s.escalation.Escalate(adv, transcript)

	ev := history.NewEvent(transcript, adv, s.now())
	s.history.Record(ev)
	if s.archive != nil {
		if err := s.archive.Append(s.id, ev); err != nil {
			log.Warn().Err(err).Str("session", s.id).Msg("Failed to archive transcript")
		}
	}
	s.emit(events.NewEvent(events.HistoryRecorded, s.id).WithPayload(ev))

	return Result{
		Advisory:     adv,
		Escalation:   s.escalation.State(),
		Event:        ev,
		AlertVisible: s.escalation.AlertVisible(adv),
		Matched:      match.Matched,
	}, true
}

// Dismiss acknowledges the high-risk alert
func (s *Session) Dismiss() {
	s.escalation.Dismiss()
}

// ClearHistory empties the history. Calling it on an empty history is
// harmless.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Clear()
	if s.archive != nil {
		if _, err := s.archive.Clear(s.id); err != nil {
			log.Warn().Err(err).Str("session", s.id).Msg("Failed to clear archived transcripts")
		}
	}
	s.emit(events.NewEvent(events.HistoryCleared, s.id))
}

// Restore seeds the history from the archive, newest first
func (s *Session) Restore() error {
	if s.archive == nil {
		return nil
	}
	evs, err := s.archive.List(s.id, 0)
	if err != nil {
		return err
	}
	s.history.Replace(evs)
	return nil
}

// History returns the session's history store
func (s *Session) History() *history.Store {
	return s.history
}

// Escalation returns a snapshot of the escalation state
func (s *Session) Escalation() escalate.State {
	return s.escalation.State()
}

// Controller returns the session's escalation controller
func (s *Session) Controller() *escalate.Controller {
	return s.escalation
}

// Close cancels in-flight escalation calls and waits for them
func (s *Session) Close() {
	s.escalation.Close()
}

func (s *Session) onEscalation(t escalate.Transition) {
	var eventType events.EventType
	switch t.Cause {
	case escalate.CauseStarted:
		eventType = events.EscalationStarted
	case escalate.CauseCompleted:
		eventType = events.EscalationCompleted
	case escalate.CauseFailed:
		eventType = events.EscalationFailed
	case escalate.CauseTimeout:
		eventType = events.EscalationTimeout
	case escalate.CauseDismissed:
		eventType = events.EscalationDismissed
	default:
		return
	}

	s.emit(events.NewEvent(eventType, s.id).
		WithPayload(EscalationPayload{Reason: t.Context.Reason, State: t.State}).
		WithError(t.Err))
}

func (s *Session) emit(e events.Event) {
	if s.bus != nil {
		s.bus.Emit(e)
	}
}
