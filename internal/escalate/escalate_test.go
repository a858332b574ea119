package escalate

import (
	"testing"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/rules"
)

func TestNewContext(t *testing.T) {
	adv := classify.Advisory{Title: "Elevated Concern", Risk: rules.RiskHigh}
	ec := NewContext(adv, "I have chest pain")

	if ec.Risk != "high" {
		t.Errorf("expected risk 'high', got %q", ec.Risk)
	}
	if ec.Reason != "elevated_concern" {
		t.Errorf("expected reason 'elevated_concern', got %q", ec.Reason)
	}
	if ec.Symptoms == nil || len(ec.Symptoms) != 0 {
		t.Errorf("expected empty non-nil symptoms, got %v", ec.Symptoms)
	}
	if ec.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", ec.Confidence)
	}
	if ec.Transcript != "I have chest pain" {
		t.Errorf("unexpected transcript %q", ec.Transcript)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Elevated Concern": "elevated_concern",
		"Possible Stroke":  "possible_stroke",
		"already_slugged":  "already_slugged",
		"Two  Spaces":      "two__spaces",
		"":                 "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNetworkError(t *testing.T) {
	s := NetworkError()
	if s.Status != "error" || s.Message != "Network error" || s.IsDryRun {
		t.Errorf("unexpected network error status: %+v", s)
	}
	if s.OK() {
		t.Error("network error must not be OK")
	}
}
