package escalate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// DryRunMessage is reported for simulated calls
const DryRunMessage = "DRY RUN: Call simulated"

// Terminal simulates the emergency call by writing it to a terminal.
// It is the default action layer when nothing else is configured.
type Terminal struct {
	mu  sync.Mutex // Protects concurrent writes to out
	out io.Writer
}

// NewTerminal creates a terminal action layer writing to stderr
func NewTerminal() *Terminal {
	return &Terminal{out: os.Stderr}
}

// NewTerminalWithWriter creates a terminal action layer writing to w
func NewTerminalWithWriter(w io.Writer) *Terminal {
	return &Terminal{out: w}
}

// Trigger writes the simulated call and reports a dry run
func (t *Terminal) Trigger(ctx context.Context, ec EmergencyContext) (CallStatus, error) {
	if err := ctx.Err(); err != nil {
		return CallStatus{}, err
	}

	symptoms := "not specified"
	if len(ec.Symptoms) > 0 {
		symptoms = strings.Join(ec.Symptoms, ", ")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "\n🚨 [%s] %s\n", ec.Risk, strings.ReplaceAll(ec.Reason, "_", " "))
	fmt.Fprintf(t.out, "   Transcript: %s\n", ec.Transcript)
	fmt.Fprintf(t.out, "   Symptoms: %s\n", symptoms)
	fmt.Fprintf(t.out, "   Confidence: %.2f\n", ec.Confidence)
	fmt.Fprintf(t.out, "   %s\n", DryRunMessage)

	return CallStatus{Status: StatusSuccess, Message: DryRunMessage, IsDryRun: true}, nil
}

// Name returns "terminal"
func (t *Terminal) Name() string {
	return "terminal"
}
