package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up by LoadConfig
const FileName = ".medalert.yaml"

// Config holds all configuration for the MedAlert server.
// It is immutable after creation via LoadConfig().
type Config struct {
	// Server contains HTTP listener settings
	Server ServerConfig `yaml:"server"`

	// Rules controls where the triage catalog comes from
	Rules RulesConfig `yaml:"rules"`

	// History controls transcript history persistence and syncing
	History HistoryConfig `yaml:"history"`

	// Escalation controls the emergency call state machine and backends
	Escalation EscalationConfig `yaml:"escalation"`

	// Action configures the in-process emergency executor
	Action ActionConfig `yaml:"action"`

	// LogLevel controls log verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080"
	Addr string `yaml:"addr"`
}

// RulesConfig selects the rule catalog source.
// At most one of File and URL may be set; with neither, the built-in
// catalog is used.
type RulesConfig struct {
	File string `yaml:"file"`
	URL  string `yaml:"url"`

	// RefreshInterval re-fetches the catalog periodically ("0" disables)
	RefreshInterval string `yaml:"refresh_interval"`

	// Watch reloads File whenever it changes on disk
	Watch bool `yaml:"watch"`
}

// HistoryConfig controls transcript history.
type HistoryConfig struct {
	// DBPath is the SQLite archive; empty keeps history in memory only
	DBPath string `yaml:"db_path"`

	// RemoteURL is polled for history when set
	RemoteURL string `yaml:"remote_url"`

	PollInterval string `yaml:"poll_interval"`

	// CompactSize is how many entries the compact history view shows
	CompactSize int `yaml:"compact_size"`
}

// EscalationConfig controls how high-risk advisories are escalated.
type EscalationConfig struct {
	// Backends lists action layers: local, terminal, slack, webhook, mqtt
	Backends     []string   `yaml:"backends"`
	WebhookURL   string     `yaml:"webhook_url"`
	SlackWebhook string     `yaml:"slack_webhook"`
	MQTT         MQTTConfig `yaml:"mqtt"`

	// CallingTimeout is how long the calling phase is shown
	CallingTimeout string `yaml:"calling_timeout"`

	// CallTimeout bounds a single backend request
	CallTimeout string `yaml:"call_timeout"`

	// Confidence is attached to every emergency context
	Confidence float64 `yaml:"confidence"`

	// Rearm is the dismissal policy: never or next-alert
	Rearm string `yaml:"rearm"`
}

// MQTTConfig identifies the broker used by the mqtt backend.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ActionConfig configures the local emergency executor.
type ActionConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
	FromNumber    string  `yaml:"from_number"`
	DoctorNumber  string  `yaml:"doctor_number"`
}

// RefreshIntervalDuration parses the rule refresh interval
func (c *Config) RefreshIntervalDuration() (time.Duration, error) {
	return parseDuration(c.Rules.RefreshInterval)
}

// PollIntervalDuration parses the history poll interval
func (c *Config) PollIntervalDuration() (time.Duration, error) {
	return parseDuration(c.History.PollInterval)
}

// CallingTimeoutDuration parses the calling phase timeout
func (c *Config) CallingTimeoutDuration() (time.Duration, error) {
	return parseDuration(c.Escalation.CallingTimeout)
}

// CallTimeoutDuration parses the backend request timeout
func (c *Config) CallTimeoutDuration() (time.Duration, error) {
	return parseDuration(c.Escalation.CallTimeout)
}

// parseDuration accepts "" and "0" as zero
func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// LoadConfig loads configuration from dir.
// It applies defaults, then values from dir/.medalert.yaml if present,
// then environment overrides, then validates.
func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()

	err := readFile(filepath.Join(dir, FileName), cfg)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	// Note: missing config file is not an error (use defaults)

	return finish(cfg, dir)
}

// LoadFile loads configuration from an explicit path, which must exist.
// Relative paths inside the file resolve against its directory.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := readFile(path, cfg); err != nil {
		return nil, err
	}
	return finish(cfg, filepath.Dir(path))
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func finish(cfg *Config, dir string) (*Config, error) {
	applyEnvOverrides(cfg)

	// Resolve relative paths
	if cfg.Rules.File != "" && !filepath.IsAbs(cfg.Rules.File) {
		cfg.Rules.File = filepath.Join(dir, cfg.Rules.File)
	}
	if cfg.History.DBPath != "" && cfg.History.DBPath != ":memory:" && !filepath.IsAbs(cfg.History.DBPath) {
		cfg.History.DBPath = filepath.Join(dir, cfg.History.DBPath)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
