package events

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogConfig configures the logging handler
type LogConfig struct {
	// Writer is where logs are written (default: os.Stderr)
	Writer io.Writer

	// Logger overrides Writer when set
	Logger *zerolog.Logger

	// IncludePayload includes event payload in log output
	IncludePayload bool
}

// LogHandler returns a handler that logs events as structured records.
// Failure events are logged at warn level, everything else at info.
func LogHandler(cfg LogConfig) Handler {
	var logger zerolog.Logger
	switch {
	case cfg.Logger != nil:
		logger = *cfg.Logger
	case cfg.Writer != nil:
		logger = zerolog.New(cfg.Writer).With().Timestamp().Logger()
	default:
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	return func(e Event) {
		entry := logger.Info()
		if e.IsFailure() {
			entry = logger.Warn()
		}

		entry = entry.Str("event", string(e.Type))
		if e.Session != "" {
			entry = entry.Str("session", e.Session)
		}
		if e.Error != "" {
			entry = entry.Str("error", e.Error)
		}
		if cfg.IncludePayload && e.Payload != nil {
			entry = entry.Interface("payload", e.Payload)
		}
		entry.Msg(e.String())
	}
}

// CountHandler returns a handler that tallies events by type into counts.
// The returned handler must only be used from a single bus.
func CountHandler(counts map[EventType]int) Handler {
	return func(e Event) {
		counts[e.Type]++
	}
}
