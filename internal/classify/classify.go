// Package classify turns a free-text symptom transcript into a triage
// advisory using an ordered rule catalog.
package classify

import (
	"github.com/RevCBH/medalert/internal/rules"
)

// Fallback advisory text for transcripts that match no rule.
const (
	FallbackTitle   = "General Guidance"
	FallbackMessage = "I couldn't recognize a specific symptom. Please describe what you are feeling, for example \"headache\", \"fever\" or \"chest pain\", so I can give better guidance."
)

// Advisory is the classifier's verdict for one transcript.
type Advisory struct {
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Risk    rules.Risk `json:"risk"`
}

// IsHigh reports whether the advisory should trigger escalation
func (a Advisory) IsHigh() bool {
	return a.Risk == rules.RiskHigh
}

// Fallback returns the advisory used when no rule matches.
func Fallback() Advisory {
	return Advisory{
		Title:   FallbackTitle,
		Message: FallbackMessage,
		Risk:    rules.RiskLow,
	}
}

// Match is the full result of a classification pass.
type Match struct {
	// Matched lists every matching rule name in catalog order.
	Matched []string `json:"matched"`

	// Winner is the name of the selected rule, empty for the fallback.
	Winner string `json:"winner,omitempty"`

	Advisory Advisory `json:"advisory"`
}

// Classify returns the advisory for text. It never fails: no match is the
// fallback advisory. Among matching rules the highest risk wins and ties go
// to the rule declared first.
func Classify(text string, catalog *rules.Catalog) Advisory {
	return Explain(text, catalog).Advisory
}

// Explain is Classify with the intermediate matches exposed.
func Explain(text string, catalog *rules.Catalog) Match {
	folded := rules.Fold(text)

	var (
		m    Match
		best *rules.Rule
	)
	for i := range catalog.Len() {
		rule := catalog.At(i)
		if !rule.Matches(folded) {
			continue
		}
		m.Matched = append(m.Matched, rule.Name)
		// Strictly greater keeps the first-seen rule on ties.
		if best == nil || rule.Risk.Priority() > best.Risk.Priority() {
			best = rule
		}
	}

	if best == nil {
		m.Advisory = Fallback()
		return m
	}

	m.Winner = best.Name
	m.Advisory = Advisory{
		Title:   best.Title,
		Message: best.Message,
		Risk:    best.Risk,
	}
	return m
}

// CatalogFunc returns the catalog to classify against.
type CatalogFunc func() *rules.Catalog

// Classifier binds classification to a catalog that may be swapped out
// between calls, such as a rules.Provider.
type Classifier struct {
	catalog CatalogFunc
}

// New creates a Classifier reading its catalog from fn
func New(fn CatalogFunc) *Classifier {
	return &Classifier{catalog: fn}
}

// NewStatic creates a Classifier over a fixed catalog
func NewStatic(c *rules.Catalog) *Classifier {
	return New(func() *rules.Catalog { return c })
}

// Classify classifies text against the current catalog
func (c *Classifier) Classify(text string) Advisory {
	return Classify(text, c.Catalog())
}

// Explain explains text against the current catalog
func (c *Classifier) Explain(text string) Match {
	return Explain(text, c.Catalog())
}

// Catalog returns the catalog currently in force, never nil
func (c *Classifier) Catalog() *rules.Catalog {
	if c == nil || c.catalog == nil {
		return rules.Empty()
	}
	if cat := c.catalog(); cat != nil {
		return cat
	}
	return rules.Empty()
}
