package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// RegexPrefix marks a pattern as a regular expression instead of a literal phrase.
const RegexPrefix = "re:"

// Record is the serialized form of a rule as it appears in rule files and
// in the /rules API. Rule files call the pattern list "patterns"; the API
// keeps the historical "keywords" name.
type Record struct {
	Name     string   `json:"name" yaml:"name"`
	Risk     Risk     `json:"risk" yaml:"risk"`
	Keywords []string `json:"keywords" yaml:"patterns"`
	Title    string   `json:"title" yaml:"title"`
	Message  string   `json:"message" yaml:"message"`
}

// Rule is a compiled symptom rule. A rule matches when any one of its
// patterns matches the case-folded transcript.
type Rule struct {
	Name     string
	Patterns []string
	Risk     Risk
	Title    string
	Message  string

	matchers []matcher
}

type matcher interface {
	match(folded string) bool
}

type literal string

func (l literal) match(folded string) bool {
	return strings.Contains(folded, string(l))
}

type expr struct {
	re *regexp.Regexp
}

func (e expr) match(folded string) bool {
	return e.re.MatchString(folded)
}

// Matches reports whether any pattern matches. text must already be
// case-folded with Fold.
func (r *Rule) Matches(folded string) bool {
	for _, m := range r.matchers {
		if m.match(folded) {
			return true
		}
	}
	return false
}

// Record converts the rule back to its serialized form.
func (r *Rule) Record() Record {
	return Record{
		Name:     r.Name,
		Risk:     r.Risk,
		Keywords: append([]string(nil), r.Patterns...),
		Title:    r.Title,
		Message:  r.Message,
	}
}

// Fold normalizes text for matching.
func Fold(text string) string {
	return strings.ToLower(text)
}

func compilePattern(p string) (matcher, error) {
	if src, ok := strings.CutPrefix(p, RegexPrefix); ok {
		re, err := regexp.Compile("(?i)" + src)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", src, err)
		}
		return expr{re: re}, nil
	}
	return literal(Fold(p)), nil
}
