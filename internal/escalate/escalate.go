package escalate

import (
	"context"
	"strings"

	"github.com/RevCBH/medalert/internal/classify"
)

// Confidence attached to every rule-based emergency context
const DefaultConfidence = 0.8

// Call status values reported by the action layer
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusIgnored = "ignored"
)

// NetworkErrorMessage is reported when the action layer cannot be reached
const NetworkErrorMessage = "Network error"

// EmergencyContext is the payload sent to the action layer when a
// high-risk advisory is issued
type EmergencyContext struct {
	Risk       string   `json:"risk"`       // Always "high"
	Reason     string   `json:"reason"`     // Slug of the advisory title
	Symptoms   []string `json:"symptoms"`   // Not extracted at this layer
	Confidence float64  `json:"confidence"` // Fixed for rule matches
	Transcript string   `json:"transcript"` // Raw user text
}

// CallStatus is the action layer's answer to an emergency trigger
type CallStatus struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	IsDryRun bool   `json:"is_dry_run"`
	Reason   string `json:"reason,omitempty"` // Why an action was ignored
}

// OK reports whether the call was placed (or simulated)
func (s CallStatus) OK() bool {
	return s.Status == StatusSuccess
}

// NetworkError is the synthetic status recorded when the trigger fails
// before the action layer answers
func NetworkError() CallStatus {
	return CallStatus{Status: StatusError, Message: NetworkErrorMessage}
}

// NewContext builds the emergency context for an advisory and the
// transcript that produced it
func NewContext(adv classify.Advisory, transcript string) EmergencyContext {
	return EmergencyContext{
		Risk:       "high",
		Reason:     Slug(adv.Title),
		Symptoms:   []string{},
		Confidence: DefaultConfidence,
		Transcript: transcript,
	}
}

// Slug lowercases s and replaces spaces with underscores
func Slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

// ActionLayer is the interface for triggering an emergency action
type ActionLayer interface {
	// Trigger asks the action layer to act on ctx.
	// A non-nil error means no status was received (transport failure).
	// Implementations should respect context cancellation.
	Trigger(ctx context.Context, ec EmergencyContext) (CallStatus, error)

	// Name returns the backend type for logging
	Name() string
}
