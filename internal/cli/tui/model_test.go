package tui

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/events"
	"github.com/RevCBH/medalert/internal/rules"
	"github.com/RevCBH/medalert/internal/session"
)

func newTestModel(t *testing.T) (*Model, *session.Session) {
	t.Helper()
	s := session.New("console", session.Options{
		Classifier: classify.NewStatic(rules.Default()),
		Escalation: escalate.ControllerConfig{Layer: escalate.NewTerminalWithWriter(io.Discard)},
	})
	t.Cleanup(s.Close)
	return NewModel(s, 2), s
}

func typeText(m *Model, text string) {
	for _, r := range text {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// submit presses enter and feeds the resulting message back in
func submit(t *testing.T, m *Model) {
	t.Helper()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func TestModel_TypingAndBackspace(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "chest")
	assert.Equal(t, "chest", m.Input)

	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "ches", m.Input)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Empty(t, m.Input)

	// Backspace on empty input is harmless
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Empty(t, m.Input)
}

func TestModel_SubmitHighRisk(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "I have chest pain")
	submit(t, m)

	require.NotNil(t, m.Latest)
	assert.Equal(t, "Elevated Concern", m.Latest.Title)
	assert.True(t, m.Alert)
	assert.Empty(t, m.Input)
	assert.Equal(t, 1, m.Counts.High)

	view := m.View()
	assert.Contains(t, view, "Elevated Concern")
	assert.Contains(t, view, "seek medical attention now")
}

func TestModel_SubmitEmptyIgnored(t *testing.T) {
	m, s := newTestModel(t)

	typeText(m, "   ")
	submit(t, m)

	assert.Nil(t, m.Latest)
	assert.Equal(t, 0, s.History().Len())
}

func TestModel_CompactHistory(t *testing.T) {
	m, _ := newTestModel(t)

	for _, text := range []string{"headache", "fever", "nausea"} {
		typeText(m, text)
		submit(t, m)
	}

	require.Len(t, m.Recent, 2)
	assert.Equal(t, "nausea", m.Recent[0].Text)
	assert.Equal(t, "fever", m.Recent[1].Text)
	assert.Equal(t, 3, m.Counts.Total)
}

func TestModel_DismissAlert(t *testing.T) {
	m, s := newTestModel(t)

	typeText(m, "chest pain")
	submit(t, m)
	require.True(t, m.Alert)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})

	assert.False(t, m.Alert)
	assert.True(t, s.Escalation().Dismissed)
	assert.NotContains(t, m.View(), "seek medical attention now")
}

func TestModel_ClearHistory(t *testing.T) {
	m, s := newTestModel(t)

	typeText(m, "headache")
	submit(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Nil(t, m.Latest)
	assert.Empty(t, m.Recent)
	assert.Equal(t, 0, s.History().Len())
	assert.Contains(t, m.View(), "No history yet")
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m, _ := newTestModel(t)
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		assert.True(t, m.Quitting)
		require.NotNil(t, cmd)
		assert.Empty(t, m.View())
	}
}

func TestModel_CatalogFailureKeepsCount(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(CatalogMsg{Rules: 12})
	m.Update(CatalogMsg{Error: "bad rules"})

	assert.Equal(t, 12, m.Rules)
	assert.Contains(t, m.View(), "reload failed: bad rules")
}

func TestModel_LogPane(t *testing.T) {
	m, _ := newTestModel(t)
	m.LogLimit = 3

	for i := 0; i < 5; i++ {
		m.Update(LogMsg{Line: strings.Repeat("x", i+1)})
	}
	assert.Len(t, m.LogLines, 3)

	assert.NotContains(t, m.View(), "Logs")
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "Logs")
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) all() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tea.Msg(nil), r.msgs...)
}

func TestBridge_FiltersBySession(t *testing.T) {
	sender := &recordingSender{}
	handler := NewBridge(sender, "mine").Handler()

	state := escalate.State{Phase: escalate.PhaseCalling}
	handler(events.NewEvent(events.EscalationStarted, "mine").WithPayload(session.EscalationPayload{State: state}))
	handler(events.NewEvent(events.EscalationStarted, "theirs").WithPayload(session.EscalationPayload{State: state}))
	handler(events.NewEvent(events.CatalogLoaded, "").WithPayload(7))
	handler(events.NewEvent(events.AdvisoryIssued, "mine"))

	msgs := sender.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, EscalationMsg{Cause: escalate.CauseStarted, State: state}, msgs[0])
	assert.Equal(t, CatalogMsg{Rules: 7}, msgs[1])
}

func TestBridge_HistoryAndFailures(t *testing.T) {
	sender := &recordingSender{}
	b := NewBridge(sender, "mine")
	handler := b.Handler()

	handler(events.NewEvent(events.HistoryCleared, "mine"))
	handler(events.NewEvent(events.CatalogFailed, "").WithError(assert.AnError))
	b.SendDone()

	msgs := sender.all()
	require.Len(t, msgs, 3)
	assert.Equal(t, HistoryChangedMsg{}, msgs[0])
	assert.Equal(t, CatalogMsg{Error: assert.AnError.Error()}, msgs[1])
	assert.Equal(t, DoneMsg{}, msgs[2])
}

func TestLogWriter_SplitsLines(t *testing.T) {
	sender := &recordingSender{}
	w := NewLogWriter(sender)

	_, err := w.Write([]byte("first\nsecond\r\npart"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Eventually(t, func() bool { return len(sender.all()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []tea.Msg{LogMsg{Line: "first"}, LogMsg{Line: "second"}, LogMsg{Line: "part"}}, sender.all())
}
