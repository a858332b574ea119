package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/RevCBH/medalert/internal/rules"
)

// Styles contains all lipgloss styles for the TUI
type Styles struct {
	// Header styling
	Title   lipgloss.Style
	Timer   lipgloss.Style
	Session lipgloss.Style

	// Risk levels
	RiskLow      lipgloss.Style
	RiskElevated lipgloss.Style
	RiskHigh     lipgloss.Style

	// Advisory card
	Advisory lipgloss.Style
	Message  lipgloss.Style
	Matched  lipgloss.Style

	// Escalation banner
	Alert   lipgloss.Style
	Calling lipgloss.Style
	Status  lipgloss.Style

	// History
	HistoryTime lipgloss.Style
	HistoryText lipgloss.Style

	// Input and footer
	Prompt    lipgloss.Style
	Footer    lipgloss.Style
	FooterKey lipgloss.Style

	// Log area styling
	LogTitle lipgloss.Style
	LogLine  lipgloss.Style
}

// DefaultStyles returns the default TUI styles
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Timer:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Session: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		RiskLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		RiskElevated: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		RiskHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Advisory: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Message:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Matched:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),

		Alert:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1),
		Calling: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		HistoryTime: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		HistoryText: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),

		Prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),

		LogTitle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true),
		LogLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Risk returns the style for a risk level
func (s Styles) Risk(r rules.Risk) lipgloss.Style {
	switch r {
	case rules.RiskHigh:
		return s.RiskHigh
	case rules.RiskElevated:
		return s.RiskElevated
	default:
		return s.RiskLow
	}
}

// Icons used in the TUI
const (
	IconLow      = "●"
	IconElevated = "▲"
	IconHigh     = "✗"
	IconCalling  = "☎"
	IconOK       = "✓"
	IconAlert    = "⚠"
)

// RiskIcon returns the icon for a risk level
func RiskIcon(r rules.Risk) string {
	switch r {
	case rules.RiskHigh:
		return IconHigh
	case rules.RiskElevated:
		return IconElevated
	default:
		return IconLow
	}
}
