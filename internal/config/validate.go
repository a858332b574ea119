package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/RevCBH/medalert/internal/escalate"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

var knownBackends = []string{"local", "terminal", "slack", "webhook", "mqtt"}

var logLevels = []string{"debug", "info", "warn", "error"}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.Server.Addr == "" {
		errs = append(errs, &ValidationError{
			Field:   "server.addr",
			Value:   cfg.Server.Addr,
			Message: "must not be empty",
		})
	}

	if cfg.Rules.File != "" && cfg.Rules.URL != "" {
		errs = append(errs, &ValidationError{
			Field:   "rules",
			Value:   cfg.Rules.URL,
			Message: "file and url are mutually exclusive",
		})
	}
	if cfg.Rules.Watch && cfg.Rules.File == "" {
		errs = append(errs, &ValidationError{
			Field:   "rules.watch",
			Value:   cfg.Rules.Watch,
			Message: "requires rules.file",
		})
	}
	errs = appendDuration(errs, "rules.refresh_interval", cfg.Rules.RefreshInterval, false)

	errs = appendDuration(errs, "history.poll_interval", cfg.History.PollInterval, cfg.History.RemoteURL != "")
	if cfg.History.CompactSize < 1 {
		errs = append(errs, &ValidationError{
			Field:   "history.compact_size",
			Value:   cfg.History.CompactSize,
			Message: "must be at least 1",
		})
	}

	for _, backend := range cfg.Escalation.Backends {
		if !slices.Contains(knownBackends, backend) {
			errs = append(errs, &ValidationError{
				Field:   "escalation.backends",
				Value:   backend,
				Message: fmt.Sprintf("unknown backend (must be one of %v)", knownBackends),
			})
		}
	}
	if slices.Contains(cfg.Escalation.Backends, "webhook") && cfg.Escalation.WebhookURL == "" {
		errs = append(errs, &ValidationError{
			Field:   "escalation.webhook_url",
			Value:   cfg.Escalation.WebhookURL,
			Message: "required by the webhook backend",
		})
	}
	if slices.Contains(cfg.Escalation.Backends, "slack") && cfg.Escalation.SlackWebhook == "" {
		errs = append(errs, &ValidationError{
			Field:   "escalation.slack_webhook",
			Value:   cfg.Escalation.SlackWebhook,
			Message: "required by the slack backend",
		})
	}
	if slices.Contains(cfg.Escalation.Backends, "mqtt") && cfg.Escalation.MQTT.Broker == "" {
		errs = append(errs, &ValidationError{
			Field:   "escalation.mqtt.broker",
			Value:   cfg.Escalation.MQTT.Broker,
			Message: "required by the mqtt backend",
		})
	}
	errs = appendDuration(errs, "escalation.calling_timeout", cfg.Escalation.CallingTimeout, true)
	errs = appendDuration(errs, "escalation.call_timeout", cfg.Escalation.CallTimeout, true)
	if cfg.Escalation.Confidence < 0 || cfg.Escalation.Confidence > 1 {
		errs = append(errs, &ValidationError{
			Field:   "escalation.confidence",
			Value:   cfg.Escalation.Confidence,
			Message: "must be between 0 and 1",
		})
	}
	if !escalate.RearmPolicy(cfg.Escalation.Rearm).Valid() {
		errs = append(errs, &ValidationError{
			Field:   "escalation.rearm",
			Value:   cfg.Escalation.Rearm,
			Message: "must be 'never' or 'next-alert'",
		})
	}

	if cfg.Action.MinConfidence < 0 || cfg.Action.MinConfidence > 1 {
		errs = append(errs, &ValidationError{
			Field:   "action.min_confidence",
			Value:   cfg.Action.MinConfidence,
			Message: "must be between 0 and 1",
		})
	}

	// The local executor ignores contexts below its own threshold
	if slices.Contains(cfg.Escalation.Backends, "local") &&
		cfg.Escalation.Confidence < cfg.Action.MinConfidence {
		errs = append(errs, &ValidationError{
			Field:   "escalation.confidence",
			Value:   cfg.Escalation.Confidence,
			Message: fmt.Sprintf("must be at least action.min_confidence (%.2f) with the local backend", cfg.Action.MinConfidence),
		})
	}

	if !slices.Contains(logLevels, cfg.LogLevel) {
		errs = append(errs, &ValidationError{
			Field:   "log_level",
			Value:   cfg.LogLevel,
			Message: "must be one of: debug, info, warn, error",
		})
	}

	return errors.Join(errs...)
}

// appendDuration validates a duration field. Required durations must be
// positive; optional ones may be zero.
func appendDuration(errs []error, field, value string, required bool) []error {
	d, err := parseDuration(value)
	switch {
	case err != nil:
		return append(errs, &ValidationError{
			Field:   field,
			Value:   value,
			Message: "must be a valid duration (e.g., '30s', '5m')",
		})
	case d < 0:
		return append(errs, &ValidationError{
			Field:   field,
			Value:   value,
			Message: "must not be negative",
		})
	case required && d == 0:
		return append(errs, &ValidationError{
			Field:   field,
			Value:   value,
			Message: "must be positive",
		})
	}
	return errs
}
