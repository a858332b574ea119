package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/rules"
)

// RiskSymbol marks a risk level in plain output
type RiskSymbol string

const (
	SymbolLow      RiskSymbol = "●"
	SymbolElevated RiskSymbol = "▲"
	SymbolHigh     RiskSymbol = "✗"
)

// GetRiskSymbol returns the symbol for a risk level
func GetRiskSymbol(r rules.Risk) RiskSymbol {
	switch r {
	case rules.RiskHigh:
		return SymbolHigh
	case rules.RiskElevated:
		return SymbolElevated
	default:
		return SymbolLow
	}
}

// Display renders advisories and rule tables for a writer. Colors are
// used only when the writer is a color-capable terminal.
type Display struct {
	w        io.Writer
	title    lipgloss.Style
	dim      lipgloss.Style
	low      lipgloss.Style
	elevated lipgloss.Style
	high     lipgloss.Style
}

// NewDisplay creates a Display for w
func NewDisplay(w io.Writer) *Display {
	r := lipgloss.NewRenderer(w)
	return &Display{
		w:        w,
		title:    r.NewStyle().Bold(true),
		dim:      r.NewStyle().Foreground(lipgloss.Color("245")),
		low:      r.NewStyle().Foreground(lipgloss.Color("42")),
		elevated: r.NewStyle().Foreground(lipgloss.Color("214")),
		high:     r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

func (d *Display) risk(r rules.Risk) lipgloss.Style {
	switch r {
	case rules.RiskHigh:
		return d.high
	case rules.RiskElevated:
		return d.elevated
	default:
		return d.low
	}
}

// Advisory writes an advisory, and the rules that matched when explain
// output was requested
func (d *Display) Advisory(m classify.Match, explain bool) {
	adv := m.Advisory
	style := d.risk(adv.Risk)

	fmt.Fprintf(d.w, "%s %s %s\n",
		style.Render(string(GetRiskSymbol(adv.Risk))),
		d.title.Render(adv.Title),
		style.Render("["+adv.Risk.String()+"]"),
	)
	fmt.Fprintf(d.w, "  %s\n", adv.Message)

	if explain {
		matched := "none"
		if len(m.Matched) > 0 {
			matched = strings.Join(m.Matched, ", ")
		}
		fmt.Fprintln(d.w, d.dim.Render("  matched: "+matched))
		if m.Winner != "" {
			fmt.Fprintln(d.w, d.dim.Render("  winner:  "+m.Winner))
		}
	}

	if adv.IsHigh() {
		fmt.Fprintln(d.w, d.high.Render("  This would escalate to the emergency action layer."))
	}
}

// Rules writes the catalog as a table in evaluation order
func (d *Display) Rules(c *rules.Catalog) {
	records := c.Records()
	nameWidth := len("NAME")
	for _, r := range records {
		nameWidth = max(nameWidth, len(r.Name))
	}

	fmt.Fprintln(d.w, d.title.Render(fmt.Sprintf("  %-*s  %-8s  %s", nameWidth, "NAME", "RISK", "PATTERNS")))
	for _, r := range records {
		risk := fmt.Sprintf("%-8s", r.Risk)
		fmt.Fprintf(d.w, "%s %-*s  %s  %s\n",
			d.risk(r.Risk).Render(string(GetRiskSymbol(r.Risk))),
			nameWidth, r.Name,
			d.risk(r.Risk).Render(risk),
			d.dim.Render(strings.Join(r.Keywords, ", ")),
		)
	}

	counts := c.Counts()
	fmt.Fprintf(d.w, "\n  %d rules: %d high, %d elevated, %d low\n",
		c.Len(), counts[rules.RiskHigh], counts[rules.RiskElevated], counts[rules.RiskLow])
}
