package config

import (
	"testing"
)

func TestEnvOverrides_Addr(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Addr: "original"}}
	t.Setenv("MEDALERT_ADDR", ":9090")

	applyEnvOverrides(cfg)

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected Server.Addr to be ':9090', got '%s'", cfg.Server.Addr)
	}
}

func TestEnvOverrides_Backends(t *testing.T) {
	cfg := &Config{Escalation: EscalationConfig{Backends: []string{"local"}}}
	t.Setenv("MEDALERT_ESCALATION_BACKENDS", " terminal, mqtt ,,")

	applyEnvOverrides(cfg)

	want := []string{"terminal", "mqtt"}
	if len(cfg.Escalation.Backends) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Escalation.Backends)
	}
	for i := range want {
		if cfg.Escalation.Backends[i] != want[i] {
			t.Errorf("backend %d: expected %q, got %q", i, want[i], cfg.Escalation.Backends[i])
		}
	}
}

func TestEnvOverrides_Numbers(t *testing.T) {
	cfg := &Config{}
	t.Setenv("MEDALERT_FROM_NUMBER", "+15550000000")
	t.Setenv("MEDALERT_DOCTOR_NUMBER", "+15551112222")

	applyEnvOverrides(cfg)

	if cfg.Action.FromNumber != "+15550000000" {
		t.Errorf("expected Action.FromNumber override, got '%s'", cfg.Action.FromNumber)
	}
	if cfg.Action.DoctorNumber != "+15551112222" {
		t.Errorf("expected Action.DoctorNumber override, got '%s'", cfg.Action.DoctorNumber)
	}
}

func TestEnvOverrides_LogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	t.Setenv("MEDALERT_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel to be 'debug', got '%s'", cfg.LogLevel)
	}
}

func TestEnvOverrides_EmptyNoChange(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Addr: "original-addr"},
		Rules:    RulesConfig{File: "original-rules"},
		LogLevel: "original-level",
	}
	t.Setenv("MEDALERT_ADDR", "")
	t.Setenv("MEDALERT_RULES_FILE", "")
	t.Setenv("MEDALERT_LOG_LEVEL", "")

	applyEnvOverrides(cfg)

	if cfg.Server.Addr != "original-addr" {
		t.Errorf("expected Server.Addr unchanged, got '%s'", cfg.Server.Addr)
	}
	if cfg.Rules.File != "original-rules" {
		t.Errorf("expected Rules.File unchanged, got '%s'", cfg.Rules.File)
	}
	if cfg.LogLevel != "original-level" {
		t.Errorf("expected LogLevel unchanged, got '%s'", cfg.LogLevel)
	}
}
