package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupLogging(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	tests := []struct {
		name    string
		level   string
		verbose bool
		want    zerolog.Level
	}{
		{"info", "info", false, zerolog.InfoLevel},
		{"warn", "warn", false, zerolog.WarnLevel},
		{"verbose overrides", "error", true, zerolog.DebugLevel},
		{"unknown falls back", "loud", false, zerolog.InfoLevel},
		{"empty falls back", "", false, zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			setupLogging(tt.level, tt.verbose, &buf)
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("GlobalLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetupLogging_JSONForNonTerminal(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	setupLogging("info", false, &buf)
	log.Info().Str("session", "abc").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "hello" || entry["session"] != "abc" {
		t.Errorf("unexpected log entry: %v", entry)
	}
}
