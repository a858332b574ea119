package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/events"
	"github.com/RevCBH/medalert/internal/session"
)

// Sender is the part of tea.Program the bridge uses
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge connects the event bus to the bubbletea program
type Bridge struct {
	program Sender
	session string
}

// NewBridge creates a bridge that forwards events for sessionID, plus
// service-wide events, to program
func NewBridge(program Sender, sessionID string) *Bridge {
	return &Bridge{
		program: program,
		session: sessionID,
	}
}

// Handler returns an event handler function for the event bus
func (b *Bridge) Handler() events.Handler {
	return func(evt events.Event) {
		if evt.Session != "" && evt.Session != b.session {
			return
		}
		if msg := b.eventToMsg(evt); msg != nil {
			b.program.Send(msg)
		}
	}
}

// eventToMsg converts an events.Event to a tea.Msg
func (b *Bridge) eventToMsg(evt events.Event) tea.Msg {
	switch evt.Type {
	case events.EscalationStarted, events.EscalationCompleted, events.EscalationFailed,
		events.EscalationTimeout, events.EscalationDismissed:
		payload, ok := evt.Payload.(session.EscalationPayload)
		if !ok {
			return nil
		}
		return EscalationMsg{
			Cause: escalationCause(evt.Type),
			State: payload.State,
			Error: evt.Error,
		}

	case events.HistoryCleared, events.HistorySynced:
		return HistoryChangedMsg{}

	case events.CatalogLoaded:
		rules, _ := evt.Payload.(int)
		return CatalogMsg{Rules: rules}

	case events.CatalogFailed:
		return CatalogMsg{Error: evt.Error}

	default:
		return nil
	}
}

func escalationCause(t events.EventType) string {
	switch t {
	case events.EscalationStarted:
		return escalate.CauseStarted
	case events.EscalationCompleted:
		return escalate.CauseCompleted
	case events.EscalationFailed:
		return escalate.CauseFailed
	case events.EscalationTimeout:
		return escalate.CauseTimeout
	default:
		return escalate.CauseDismissed
	}
}

// SendDone sends a DoneMsg to the program
func (b *Bridge) SendDone() {
	b.program.Send(DoneMsg{})
}

// SendQuit sends a QuitMsg to the program
func (b *Bridge) SendQuit() {
	b.program.Send(QuitMsg{})
}
