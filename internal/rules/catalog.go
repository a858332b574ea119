package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes a rule that cannot be loaded.
type ValidationError struct {
	Rule    string
	Index   int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("rules[%d]: %s", e.Index, e.Message)
	}
	return fmt.Sprintf("rules[%d] %q: %s", e.Index, e.Rule, e.Message)
}

// Catalog is an ordered, immutable set of compiled rules. Order only
// matters as the tie-break between rules of equal risk.
type Catalog struct {
	rules []Rule
}

// Empty returns a catalog with no rules. Classification against it always
// yields the fallback advisory.
func Empty() *Catalog {
	return &Catalog{}
}

// NewCatalog validates and compiles records, preserving their order.
// All problems are reported together.
func NewCatalog(records []Record) (*Catalog, error) {
	var errs []error
	seen := make(map[string]int, len(records))
	compiled := make([]Rule, 0, len(records))

	for i, rec := range records {
		name := strings.TrimSpace(rec.Name)
		fail := func(format string, args ...any) {
			errs = append(errs, &ValidationError{Rule: name, Index: i, Message: fmt.Sprintf(format, args...)})
		}

		if name == "" {
			fail("name must not be empty")
		} else if prev, dup := seen[name]; dup {
			fail("duplicate name (first defined at index %d)", prev)
		} else {
			seen[name] = i
		}
		if !rec.Risk.Valid() {
			fail("unknown risk %q", rec.Risk)
		}
		if strings.TrimSpace(rec.Title) == "" {
			fail("title must not be empty")
		}
		if len(rec.Keywords) == 0 {
			fail("at least one pattern is required")
		}

		rule := Rule{
			Name:     name,
			Patterns: append([]string(nil), rec.Keywords...),
			Risk:     rec.Risk,
			Title:    rec.Title,
			Message:  rec.Message,
		}
		for _, p := range rec.Keywords {
			if strings.TrimSpace(strings.TrimPrefix(p, RegexPrefix)) == "" {
				fail("empty pattern")
				continue
			}
			m, err := compilePattern(p)
			if err != nil {
				fail("%v", err)
				continue
			}
			rule.matchers = append(rule.matchers, m)
		}
		compiled = append(compiled, rule)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &Catalog{rules: compiled}, nil
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rules)
}

// At returns the rule at position i in catalog order.
func (c *Catalog) At(i int) *Rule {
	return &c.rules[i]
}

// Rules returns a copy of the rules in catalog order.
func (c *Catalog) Rules() []Rule {
	if c == nil {
		return nil
	}
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	for i := range out {
		out[i].Patterns = append([]string(nil), out[i].Patterns...)
	}
	return out
}

// Lookup finds a rule by name.
func (c *Catalog) Lookup(name string) (*Rule, bool) {
	for i := range c.Len() {
		if c.rules[i].Name == name {
			return &c.rules[i], true
		}
	}
	return nil, false
}

// Records returns the serialized form of every rule in order.
func (c *Catalog) Records() []Record {
	out := make([]Record, 0, c.Len())
	for i := range c.Len() {
		out = append(out, c.rules[i].Record())
	}
	return out
}

// Counts returns how many rules exist per risk level.
func (c *Catalog) Counts() map[Risk]int {
	counts := make(map[Risk]int, len(AllRisks))
	for _, r := range AllRisks {
		counts[r] = 0
	}
	for i := range c.Len() {
		counts[c.rules[i].Risk]++
	}
	return counts
}
