package rules

import "fmt"

// Risk is the triage level attached to a rule and to the advisory it produces.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskElevated Risk = "elevated"
	RiskHigh     Risk = "high"
)

// AllRisks lists every level from least to most urgent.
var AllRisks = []Risk{RiskLow, RiskElevated, RiskHigh}

// Priority orders risks for winner selection. Unknown risks rank below low.
func (r Risk) Priority() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskElevated:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the known levels
func (r Risk) Valid() bool {
	return r.Priority() > 0
}

func (r Risk) String() string {
	return string(r)
}

// ParseRisk converts a string to a Risk, rejecting unknown values.
func ParseRisk(s string) (Risk, error) {
	r := Risk(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown risk level %q (want low, elevated or high)", s)
	}
	return r, nil
}
