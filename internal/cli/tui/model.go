package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/history"
	"github.com/RevCBH/medalert/internal/session"
)

// Session is the part of a triage session the console drives
type Session interface {
	ID() string
	Submit(transcript string) (session.Result, bool)
	Dismiss()
	ClearHistory()
	Escalation() escalate.State
	History() *history.Store
}

// Model is the bubbletea model for the triage console
type Model struct {
	// Configuration
	Session     Session
	CompactSize int
	Styles      Styles

	// State
	Input      string
	Latest     *classify.Advisory
	Matched    []string
	Alert      bool
	Escalation escalate.State
	Recent     []history.Event
	Counts     history.Counts
	Rules      int
	RulesError string
	StartTime  time.Time
	LogLines   []string
	LogLimit   int
	ShowLogs   bool
	Width      int
	Height     int

	// Control
	Quitting bool
	Done     bool
}

// NewModel creates a console model over s
func NewModel(s Session, compactSize int) *Model {
	if compactSize <= 0 {
		compactSize = history.CompactSize
	}
	m := &Model{
		Session:     s,
		CompactSize: compactSize,
		Styles:      DefaultStyles(),
		StartTime:   time.Now(),
		LogLimit:    500,
	}
	m.refresh()
	if adv, ok := s.History().Latest(); ok {
		m.Latest = &adv
	}
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

// refresh reloads history and escalation state from the session
func (m *Model) refresh() {
	snap := m.Session.History().Snapshot()
	m.Counts = snap.Counts
	m.Recent = snap.Events
	if len(m.Recent) > m.CompactSize {
		m.Recent = m.Recent[:m.CompactSize]
	}
	m.Escalation = m.Session.Escalation()
}

// TickMsg is sent every second to update the timer
type TickMsg time.Time

// tickCmd returns a command that sends TickMsg every second
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// DoneMsg signals the TUI should exit
type DoneMsg struct{}

// QuitMsg signals the user requested quit
type QuitMsg struct{}

// SubmittedMsg carries the result of a transcript submission
type SubmittedMsg struct {
	Result session.Result
	OK     bool
}

// EscalationMsg reports an escalation transition
type EscalationMsg struct {
	Cause string
	State escalate.State
	Error string
}

// HistoryChangedMsg asks the model to reload the session history
type HistoryChangedMsg struct{}

// CatalogMsg reports a rule catalog reload
type CatalogMsg struct {
	Rules int
	Error string
}

// submitCmd runs the submission off the update loop
func submitCmd(s Session, transcript string) tea.Cmd {
	return func() tea.Msg {
		result, ok := s.Submit(transcript)
		return SubmittedMsg{Result: result, OK: ok}
	}
}
