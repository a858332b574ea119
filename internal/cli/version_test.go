package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/RevCBH/medalert/internal/rules"
)

func TestVersionCmd_Output(t *testing.T) {
	app := New()
	app.SetVersion("1.2.3", "abc1234", "2026-01-15T10:30:00Z")

	cmd := NewVersionCmd(app)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"medalert version 1.2.3",
		"commit: abc1234",
		"built: 2026-01-15T10:30:00Z",
		fmt.Sprintf("rules: %d built-in", rules.Default().Len()),
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestVersionCmd_Defaults(t *testing.T) {
	app := New()

	cmd := NewVersionCmd(app)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	for _, s := range []string{"version dev", "commit: unknown", "built: unknown"} {
		if !strings.Contains(output, s) {
			t.Errorf("expected %q in output:\n%s", s, output)
		}
	}
}
