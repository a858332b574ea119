package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/rules"
)

// logLinesShown is how many log lines the log pane shows
const logLinesShown = 8

// View implements tea.Model
func (m *Model) View() string {
	if m.Done || m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if banner := m.renderEscalation(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderAdvisory())
	b.WriteString("\n\n")

	b.WriteString(m.renderHistory())
	b.WriteString(m.renderCounts())
	b.WriteString("\n\n")

	b.WriteString(m.renderInput())
	b.WriteString("\n")

	if m.ShowLogs {
		b.WriteString(m.renderLogs())
	}

	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title line with timer, session and catalog size
func (m *Model) renderHeader() string {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	timer := fmt.Sprintf("[%s]", formatDuration(elapsed))

	catalog := fmt.Sprintf("Rules: %d", m.Rules)
	if m.RulesError != "" {
		catalog += " (reload failed: " + m.RulesError + ")"
	}

	return fmt.Sprintf("%s  %s  %s  %s  %s",
		m.Styles.Title.Render("MedAlert Console"),
		m.Styles.Timer.Render(timer),
		m.Styles.Session.Render("Session: "+m.Session.ID()),
		m.Styles.Session.Render(catalog),
		m.Styles.Session.Render("Escalation: "+statusLabel(m.Escalation)),
	)
}

// renderEscalation renders the high-risk alert and call status
func (m *Model) renderEscalation() string {
	var lines []string

	if m.Alert && m.Latest != nil {
		lines = append(lines, m.Styles.Alert.Render(fmt.Sprintf("%s %s: seek medical attention now", IconAlert, m.Latest.Title)))
	}

	if m.Escalation.Calling() {
		lines = append(lines, m.Styles.Calling.Render(IconCalling+" Contacting emergency services..."))
	} else if st := m.Escalation.LastStatus; st != nil {
		icon := IconOK
		if !st.OK() {
			icon = IconHigh
		}
		text := st.Status
		if st.Message != "" {
			text += ": " + st.Message
		}
		if st.IsDryRun {
			text += " (dry run)"
		}
		lines = append(lines, m.Styles.Status.Render(fmt.Sprintf("%s Last call: %s", icon, text)))
	}

	return strings.Join(lines, "\n")
}

// renderAdvisory renders the latest advisory card
func (m *Model) renderAdvisory() string {
	if m.Latest == nil {
		return m.Styles.Message.Render("  Describe your symptoms below.")
	}

	style := m.Styles.Risk(m.Latest.Risk)
	title := style.Render(fmt.Sprintf("%s %s [%s]", RiskIcon(m.Latest.Risk), m.Latest.Title, m.Latest.Risk))

	body := title + "\n" + m.Styles.Message.Render(m.Latest.Message)
	if len(m.Matched) > 0 {
		body += "\n" + m.Styles.Matched.Render("matched: "+strings.Join(m.Matched, ", "))
	}

	card := m.Styles.Advisory.BorderForeground(style.GetForeground())
	if m.Width > 4 {
		card = card.Width(m.Width - 4)
	}
	return card.Render(body)
}

// renderHistory renders the compact history, newest first
func (m *Model) renderHistory() string {
	if len(m.Recent) == 0 {
		return "  No history yet\n"
	}

	var b strings.Builder
	for _, ev := range m.Recent {
		risk := rules.RiskLow
		if ev.Advisory != nil {
			risk = ev.Advisory.Risk
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			m.Styles.Risk(risk).Render(RiskIcon(risk)),
			m.Styles.HistoryTime.Render(ev.Timestamp),
			m.Styles.HistoryText.Render(truncate(ev.Text, 60)),
		)
	}
	return b.String()
}

// renderCounts renders the per-risk summary line
func (m *Model) renderCounts() string {
	return fmt.Sprintf("  History: %d  %s | %s | %s",
		m.Counts.Total,
		m.Styles.RiskHigh.Render(fmt.Sprintf("%d high", m.Counts.High)),
		m.Styles.RiskElevated.Render(fmt.Sprintf("%d elevated", m.Counts.Elevated)),
		m.Styles.RiskLow.Render(fmt.Sprintf("%d low", m.Counts.Low)),
	)
}

func (m *Model) renderInput() string {
	return m.Styles.Prompt.Render("> ") + m.Input + "█"
}

func (m *Model) renderLogs() string {
	var b strings.Builder
	b.WriteString(m.Styles.LogTitle.Render("  Logs"))
	b.WriteString("\n")

	start := max(len(m.LogLines)-logLinesShown, 0)
	for _, line := range m.LogLines[start:] {
		b.WriteString("  ")
		b.WriteString(m.Styles.LogLine.Render(truncate(line, 120)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFooter renders the help text
func (m *Model) renderFooter() string {
	keys := []struct{ key, desc string }{
		{"enter", "submit"},
		{"ctrl+d", "dismiss alert"},
		{"ctrl+l", "clear history"},
		{"tab", "logs"},
		{"esc", "quit"},
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, m.Styles.FooterKey.Render(k.key)+" "+k.desc)
	}
	return m.Styles.Footer.Render("  " + strings.Join(parts, "  "))
}

// statusLabel is the short escalation label shown in the header
func statusLabel(s escalate.State) string {
	if s.Calling() {
		return "calling"
	}
	if s.Dismissed {
		return "dismissed"
	}
	return "idle"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatDuration formats a duration as HH:MM:SS
func formatDuration(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
