package config

import (
	"os"
	"strings"
)

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "MEDALERT_ADDR",
		apply: func(c *Config, v string) {
			c.Server.Addr = v
		},
	},
	{
		envVar: "MEDALERT_RULES_FILE",
		apply: func(c *Config, v string) {
			c.Rules.File = v
		},
	},
	{
		envVar: "MEDALERT_RULES_URL",
		apply: func(c *Config, v string) {
			c.Rules.URL = v
		},
	},
	{
		envVar: "MEDALERT_HISTORY_DB",
		apply: func(c *Config, v string) {
			c.History.DBPath = v
		},
	},
	{
		envVar: "MEDALERT_HISTORY_URL",
		apply: func(c *Config, v string) {
			c.History.RemoteURL = v
		},
	},
	{
		envVar: "MEDALERT_ESCALATION_BACKENDS",
		apply: func(c *Config, v string) {
			c.Escalation.Backends = splitList(v)
		},
	},
	{
		envVar: "MEDALERT_WEBHOOK_URL",
		apply: func(c *Config, v string) {
			c.Escalation.WebhookURL = v
		},
	},
	{
		envVar: "MEDALERT_SLACK_WEBHOOK",
		apply: func(c *Config, v string) {
			c.Escalation.SlackWebhook = v
		},
	},
	{
		envVar: "MEDALERT_MQTT_BROKER",
		apply: func(c *Config, v string) {
			c.Escalation.MQTT.Broker = v
		},
	},
	{
		envVar: "MEDALERT_MQTT_TOPIC",
		apply: func(c *Config, v string) {
			c.Escalation.MQTT.Topic = v
		},
	},
	{
		envVar: "MEDALERT_REARM",
		apply: func(c *Config, v string) {
			c.Escalation.Rearm = v
		},
	},
	{
		envVar: "MEDALERT_FROM_NUMBER",
		apply: func(c *Config, v string) {
			c.Action.FromNumber = v
		},
	},
	{
		envVar: "MEDALERT_DOCTOR_NUMBER",
		apply: func(c *Config, v string) {
			c.Action.DoctorNumber = v
		},
	},
	{
		envVar: "MEDALERT_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
