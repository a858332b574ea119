package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RevCBH/medalert/internal/config"
	"github.com/RevCBH/medalert/internal/events"
	"github.com/RevCBH/medalert/internal/rules"
	"github.com/RevCBH/medalert/internal/session"
)

func TestWireRuntime_NilConfig(t *testing.T) {
	_, err := WireRuntime(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestWireRuntime_Defaults(t *testing.T) {
	cfg := config.DefaultConfig()

	rt, err := WireRuntime(context.Background(), cfg)
	if err != nil {
		t.Fatalf("WireRuntime failed: %v", err)
	}
	defer rt.Close()

	if rt.Events == nil || rt.Rules == nil || rt.Classifier == nil || rt.Sessions == nil {
		t.Fatal("expected core components to be wired")
	}
	if rt.Archive != nil {
		t.Error("expected no archive without a db path")
	}
	if rt.Poller != nil {
		t.Error("expected no poller without a remote url")
	}
	if got := rt.Rules.Catalog().Len(); got != rules.Default().Len() {
		t.Errorf("expected built-in catalog, got %d rules", got)
	}
}

func TestWireRuntime_SubmitThroughSession(t *testing.T) {
	cfg := config.DefaultConfig()

	rt, err := WireRuntime(context.Background(), cfg)
	if err != nil {
		t.Fatalf("WireRuntime failed: %v", err)
	}
	defer rt.Close()

	issued := make(chan events.Event, 16)
	rt.Events.Subscribe(func(e events.Event) {
		if e.Type == events.AdvisoryIssued {
			issued <- e
		}
	})

	sess := rt.Sessions.Get(session.DefaultID)
	res, ok := sess.Submit("I have chest pain")
	if !ok {
		t.Fatal("expected submission to be accepted")
	}
	if res.Advisory.Risk != rules.RiskHigh {
		t.Errorf("expected high risk, got %q", res.Advisory.Risk)
	}
	if !res.AlertVisible {
		t.Error("expected alert to be visible for a high-risk advisory")
	}
	if res.Escalation.Attempts != 1 {
		t.Errorf("expected 1 escalation attempt, got %d", res.Escalation.Attempts)
	}

	select {
	case e := <-issued:
		if e.Session != session.DefaultID {
			t.Errorf("expected session %q, got %q", session.DefaultID, e.Session)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for advisory event")
	}
}

func TestWireRuntime_WithArchive(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.History.DBPath = filepath.Join(t.TempDir(), "history.db")

	rt, err := WireRuntime(context.Background(), cfg)
	if err != nil {
		t.Fatalf("WireRuntime failed: %v", err)
	}

	rt.Sessions.Get("a").Submit("headache")
	if err := rt.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A fresh runtime restores the archived history
	rt2, err := WireRuntime(context.Background(), cfg)
	if err != nil {
		t.Fatalf("WireRuntime failed: %v", err)
	}
	defer rt2.Close()

	if got := rt2.Sessions.Get("a").History().Len(); got != 1 {
		t.Errorf("expected 1 restored event, got %d", got)
	}
}

func TestWireRuntime_InvalidRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeFile(t, path, "- name: \"\"\n  risk: low\n")

	cfg := config.DefaultConfig()
	cfg.Rules.File = path

	_, err := WireRuntime(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for invalid rules file")
	}
}

func TestWireRuntime_RemoteHistory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.History.RemoteURL = "http://127.0.0.1:1/history"

	rt, err := WireRuntime(context.Background(), cfg)
	if err != nil {
		t.Fatalf("WireRuntime failed: %v", err)
	}
	defer rt.Close()

	if rt.Poller == nil {
		t.Fatal("expected poller for remote history")
	}
}

func TestWireRuntime_InvalidRefreshInterval(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rules.RefreshInterval = "soon"

	_, err := WireRuntime(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for invalid refresh interval")
	}
	if !strings.Contains(err.Error(), "refresh interval") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWireRuntime_RefreshInterval(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rules.RefreshInterval = "2m"

	rt, err := WireRuntime(context.Background(), cfg)
	if err != nil {
		t.Fatalf("WireRuntime failed: %v", err)
	}
	defer rt.Close()

	if rt.RulesRefresh != 2*time.Minute {
		t.Errorf("expected 2m refresh, got %v", rt.RulesRefresh)
	}
}

func TestRuntime_StartBackground(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	writeFile(t, path, "- name: Rash\n  risk: low\n  patterns: [rash]\n  title: Rash\n  message: m\n")

	cfg := config.DefaultConfig()
	cfg.Rules.File = path
	cfg.Rules.Watch = true
	cfg.Rules.RefreshInterval = "1h"
	cfg.History.RemoteURL = "http://127.0.0.1:1/history"
	cfg.History.PollInterval = "1h"

	rt, err := WireRuntime(context.Background(), cfg)
	if err != nil {
		t.Fatalf("WireRuntime failed: %v", err)
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	rt.StartBackground(gctx, g)

	cancel()
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("background loops failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("background loops did not stop after cancel")
	}
}

func TestRuleSource(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*config.Config)
		want string
	}{
		{"built-in", func(c *config.Config) {}, "static"},
		{"file", func(c *config.Config) { c.Rules.File = "/tmp/rules.yaml" }, "file:/tmp/rules.yaml"},
		{"url", func(c *config.Config) { c.Rules.URL = "http://example.com/rules" }, "http:http://example.com/rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.cfg(cfg)
			if got := ruleSource(cfg).Name(); got != tt.want {
				t.Errorf("ruleSource().Name() = %q, want %q", got, tt.want)
			}
		})
	}
}
