package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/RevCBH/medalert/internal/escalate"
)

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case TickMsg:
		// Continue ticking for timer updates
		return m, tickCmd()

	case DoneMsg:
		m.Done = true
		return m, tea.Quit

	case QuitMsg:
		m.Quitting = true
		return m, tea.Quit

	case SubmittedMsg:
		if !msg.OK {
			return m, nil
		}
		adv := msg.Result.Advisory
		m.Latest = &adv
		m.Matched = msg.Result.Matched
		m.Alert = msg.Result.AlertVisible
		m.refresh()

	case EscalationMsg:
		m.Escalation = msg.State
		if msg.Cause == escalate.CauseDismissed {
			m.Alert = false
		}

	case HistoryChangedMsg:
		m.refresh()

	case CatalogMsg:
		// A failed reload keeps the previous catalog in force
		if msg.Error == "" {
			m.Rules = msg.Rules
		}
		m.RulesError = msg.Error

	case LogMsg:
		m.appendLog(msg.Line)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.Quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		text := m.Input
		m.Input = ""
		return m, submitCmd(m.Session, text)

	case tea.KeyBackspace:
		if r := []rune(m.Input); len(r) > 0 {
			m.Input = string(r[:len(r)-1])
		}

	case tea.KeyCtrlU:
		m.Input = ""

	case tea.KeyCtrlD:
		if m.Alert {
			m.Session.Dismiss()
			m.Alert = false
			m.Escalation = m.Session.Escalation()
		}

	case tea.KeyCtrlL:
		m.Session.ClearHistory()
		m.Latest = nil
		m.Matched = nil
		m.refresh()

	case tea.KeyTab:
		m.ShowLogs = !m.ShowLogs

	case tea.KeySpace:
		m.Input += " "

	case tea.KeyRunes:
		m.Input += string(msg.Runes)
	}

	return m, nil
}

func (m *Model) appendLog(line string) {
	m.LogLines = append(m.LogLines, line)
	if m.LogLimit > 0 && len(m.LogLines) > m.LogLimit {
		m.LogLines = m.LogLines[len(m.LogLines)-m.LogLimit:]
	}
}
