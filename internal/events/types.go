package events

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single occurrence in the triage lifecycle
type Event struct {
	// Time is when the event occurred (set by bus on emit)
	Time time.Time `json:"time"`

	// Type identifies what happened
	Type EventType `json:"type"`

	// Session is the session ID this event relates to (empty for service events)
	Session string `json:"session,omitempty"`

	// Payload contains event-specific data (type varies by event)
	Payload any `json:"payload,omitempty"`

	// Error contains error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// EventType is a string constant identifying the event category
type EventType string

// Transcript events
const (
	// TranscriptIgnored is emitted for empty or whitespace-only input
	TranscriptIgnored EventType = "transcript.ignored"

	// AdvisoryIssued is emitted for every classified transcript
	// Payload: transcript, advisory, matched rules
	AdvisoryIssued EventType = "advisory.issued"
)

// Escalation events
const (
	EscalationStarted   EventType = "escalation.started"
	EscalationCompleted EventType = "escalation.completed"
	EscalationFailed    EventType = "escalation.failed"
	EscalationTimeout   EventType = "escalation.timeout" // Calling indicator cleared before the call answered
	EscalationDismissed EventType = "escalation.dismissed"
)

// History events
const (
	HistoryRecorded EventType = "history.recorded"
	HistoryCleared  EventType = "history.cleared"
	HistorySynced   EventType = "history.synced"
)

// Rule catalog events
const (
	CatalogLoaded EventType = "catalog.loaded"
	CatalogFailed EventType = "catalog.failed"
)

// Session events
const (
	SessionCreated EventType = "session.created"
	SessionClosed  EventType = "session.closed"
)

// NewEvent creates an event with the given type and session
func NewEvent(eventType EventType, session string) Event {
	return Event{
		Type:    eventType,
		Session: session,
	}
}

// WithPayload returns a copy of the event with the payload set
func (e Event) WithPayload(payload any) Event {
	e.Payload = payload
	return e
}

// WithError returns a copy of the event with the error message set
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// IsFailure returns true if this is a failure event type
func (e Event) IsFailure() bool {
	return strings.HasSuffix(string(e.Type), ".failed")
}

// String returns a human-readable representation of the event
func (e Event) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))

	if e.Session != "" {
		parts = append(parts, "session="+e.Session)
	}

	if e.Error != "" {
		parts = append(parts, fmt.Sprintf("error=%q", e.Error))
	}

	return strings.Join(parts, " ")
}
