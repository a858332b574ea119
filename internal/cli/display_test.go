package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/RevCBH/medalert/internal/classify"
	"github.com/RevCBH/medalert/internal/rules"
)

func TestGetRiskSymbol(t *testing.T) {
	tests := []struct {
		risk rules.Risk
		want RiskSymbol
	}{
		{rules.RiskLow, SymbolLow},
		{rules.RiskElevated, SymbolElevated},
		{rules.RiskHigh, SymbolHigh},
		{rules.Risk("unknown"), SymbolLow},
	}

	for _, tt := range tests {
		if got := GetRiskSymbol(tt.risk); got != tt.want {
			t.Errorf("GetRiskSymbol(%q) = %q, want %q", tt.risk, got, tt.want)
		}
	}
}

func TestDisplay_Advisory_Low(t *testing.T) {
	var buf bytes.Buffer
	NewDisplay(&buf).Advisory(classify.Match{Advisory: classify.Fallback()}, false)

	out := buf.String()
	if !strings.Contains(out, classify.FallbackTitle) {
		t.Errorf("expected fallback title, got:\n%s", out)
	}
	if !strings.Contains(out, "[low]") {
		t.Errorf("expected risk label, got:\n%s", out)
	}
	if strings.Contains(out, "escalate") {
		t.Errorf("expected no escalation note for low risk, got:\n%s", out)
	}
	if strings.Contains(out, "matched:") {
		t.Errorf("expected no explain output, got:\n%s", out)
	}
}

func TestDisplay_Advisory_ExplainNoMatch(t *testing.T) {
	var buf bytes.Buffer
	NewDisplay(&buf).Advisory(classify.Match{Advisory: classify.Fallback()}, true)

	out := buf.String()
	if !strings.Contains(out, "matched: none") {
		t.Errorf("expected 'matched: none', got:\n%s", out)
	}
	if strings.Contains(out, "winner:") {
		t.Errorf("expected no winner for the fallback, got:\n%s", out)
	}
}

func TestDisplay_Advisory_High(t *testing.T) {
	var buf bytes.Buffer
	m := classify.Explain("crushing chest pain", rules.Default())
	NewDisplay(&buf).Advisory(m, true)

	out := buf.String()
	if !strings.Contains(out, string(SymbolHigh)) {
		t.Errorf("expected high-risk symbol, got:\n%s", out)
	}
	if !strings.Contains(out, "winner:  Chest Pain") {
		t.Errorf("expected winner line, got:\n%s", out)
	}
	if !strings.Contains(out, "emergency action layer") {
		t.Errorf("expected escalation note, got:\n%s", out)
	}
}

func TestDisplay_Rules(t *testing.T) {
	c, err := rules.NewCatalog([]rules.Record{
		{Name: "Stiff Neck", Risk: rules.RiskElevated, Keywords: []string{"stiff neck"}, Title: "Neck", Message: "m"},
		{Name: "Hiccups", Risk: rules.RiskLow, Keywords: []string{"hiccup", "re:hic+up"}, Title: "Hiccups", Message: "m"},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	var buf bytes.Buffer
	NewDisplay(&buf).Rules(c)
	out := buf.String()

	if strings.Index(out, "Stiff Neck") > strings.Index(out, "Hiccups") {
		t.Error("expected rules in catalog order")
	}
	if !strings.Contains(out, "hiccup, re:hic+up") {
		t.Errorf("expected patterns listed, got:\n%s", out)
	}
	if !strings.Contains(out, "2 rules: 0 high, 1 elevated, 1 low") {
		t.Errorf("expected summary line, got:\n%s", out)
	}
}
