// Package action is the emergency action layer: it decides whether an
// emergency context warrants a call and places it through a Dialer.
package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RevCBH/medalert/internal/escalate"
)

// DefaultMinConfidence is the lowest confidence that triggers a call
const DefaultMinConfidence = 0.7

// Status messages and reasons returned by Execute
const (
	ReasonBelowThreshold = "risk_or_confidence_too_low"
	MessageCallPlaced    = "Call initiated"
	MessageCallFailed    = "Call failed"
)

// Placeholder numbers used when none are configured
const (
	DemoNumber   = "DEMO_NUMBER"
	DoctorNumber = "DOCTOR_NUMBER"
)

// Call is one outbound call request
type Call struct {
	From   string
	To     string
	Script string
}

// Dialer places calls
type Dialer interface {
	// Dial places the call. A nil error means the call was placed.
	Dial(ctx context.Context, call Call) error

	// DryRun reports whether calls are simulated
	DryRun() bool
}

// Config configures an Executor
type Config struct {
	MinConfidence float64
	FromNumber    string
	DoctorNumber  string
}

// Executor acts on emergency contexts
type Executor struct {
	cfg    Config
	dialer Dialer
}

// NewExecutor creates an Executor. A nil dialer simulates calls.
func NewExecutor(cfg Config, dialer Dialer) *Executor {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = DemoNumber
	}
	if cfg.DoctorNumber == "" {
		cfg.DoctorNumber = DoctorNumber
	}
	if dialer == nil {
		dialer = NewDryRunDialer()
	}
	return &Executor{cfg: cfg, dialer: dialer}
}

// Execute places an emergency call when the context is high risk and
// confident enough. It never returns an error; failures are reported in
// the status.
func (e *Executor) Execute(ctx context.Context, ec escalate.EmergencyContext) escalate.CallStatus {
	risk := strings.ToLower(ec.Risk)
	if risk != "high" || ec.Confidence < e.cfg.MinConfidence {
		log.Info().Str("risk", risk).Float64("confidence", ec.Confidence).Msg("Emergency action not executed: conditions not met")
		return escalate.CallStatus{Status: escalate.StatusIgnored, Reason: ReasonBelowThreshold}
	}

	call := Call{
		From:   e.cfg.FromNumber,
		To:     e.cfg.DoctorNumber,
		Script: Script(ec.Reason, ec.Symptoms),
	}

	if err := e.dialer.Dial(ctx, call); err != nil {
		log.Error().Err(err).Str("to", call.To).Msg("Emergency call failed")
		return escalate.CallStatus{Status: escalate.StatusError, Message: MessageCallFailed}
	}

	log.Info().
		Str("reason", ec.Reason).
		Strs("symptoms", ec.Symptoms).
		Float64("confidence", ec.Confidence).
		Bool("dry_run", e.dialer.DryRun()).
		Msg("Emergency action executed")

	if e.dialer.DryRun() {
		return escalate.CallStatus{Status: escalate.StatusSuccess, Message: escalate.DryRunMessage, IsDryRun: true}
	}
	return escalate.CallStatus{Status: escalate.StatusSuccess, Message: MessageCallPlaced}
}

// Trigger lets the executor serve as an in-process action layer
func (e *Executor) Trigger(ctx context.Context, ec escalate.EmergencyContext) (escalate.CallStatus, error) {
	return e.Execute(ctx, ec), nil
}

// Name returns "local"
func (e *Executor) Name() string {
	return "local"
}

// Script is the message read to the doctor
func Script(reason string, symptoms []string) string {
	if reason == "" {
		reason = "unspecified_reason"
	}
	reported := "not specified"
	if len(symptoms) > 0 {
		reported = strings.Join(symptoms, ", ")
	}
	return fmt.Sprintf(
		"Hello Doctor. This is an automated alert from MedAlert Agent. "+
			"A patient has been detected with high-risk symptoms. "+
			"Primary concern: %s. "+
			"Symptoms reported: %s. "+
			"Please check the MedAlert dashboard for full details.",
		strings.ReplaceAll(reason, "_", " "), reported,
	)
}
