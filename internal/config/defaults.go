package config

const (
	DefaultAddr              = ":8080"
	DefaultRefreshInterval   = "0"
	DefaultPollInterval      = "10s"
	DefaultCompactSize       = 5
	DefaultCallingTimeout    = "5s"
	DefaultCallTimeout       = "30s"
	DefaultConfidence        = 0.8
	DefaultRearm             = "never"
	DefaultMinConfidence     = 0.7
	DefaultLogLevel          = "info"
	DefaultEscalationBackend = "local"
)

// DefaultConfig returns a Config with all default values applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Rules: RulesConfig{
			RefreshInterval: DefaultRefreshInterval,
		},
		History: HistoryConfig{
			PollInterval: DefaultPollInterval,
			CompactSize:  DefaultCompactSize,
		},
		Escalation: EscalationConfig{
			Backends:       []string{DefaultEscalationBackend},
			CallingTimeout: DefaultCallingTimeout,
			CallTimeout:    DefaultCallTimeout,
			Confidence:     DefaultConfidence,
			Rearm:          DefaultRearm,
		},
		Action: ActionConfig{
			MinConfidence: DefaultMinConfidence,
		},
		LogLevel: DefaultLogLevel,
	}
}
