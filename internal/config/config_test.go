package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("Port = %s, want 8081", cfg.Port)
	}
	if cfg.AMQPExchange != "finbook.events" {
		t.Errorf("AMQPExchange = %s", cfg.AMQPExchange)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.ReminderLookahead != 30 {
		t.Errorf("ReminderLookahead = %d", cfg.ReminderLookahead)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("REMINDER_LOOKAHEAD", "7")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("Port = %s, want 9999", cfg.Port)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.TokenTTL)
	}
	if cfg.ReminderLookahead != 7 {
		t.Errorf("ReminderLookahead = %d, want 7", cfg.ReminderLookahead)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("TOKEN_TTL", "yesterday")
	t.Setenv("REMINDER_LOOKAHEAD", "several")

	cfg := Load()
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want default", cfg.TokenTTL)
	}
	if cfg.ReminderLookahead != 30 {
		t.Errorf("ReminderLookahead = %d, want default", cfg.ReminderLookahead)
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Port:              "8081",
		SQLiteDBPath:      t.TempDir() + "/test.db",
		JWTSecret:         "secret",
		TokenTTL:          time.Hour,
		OTPTTL:            15 * time.Minute,
		SweepInterval:     time.Hour,
		ReminderLookahead: 30,
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-numeric port", func(c *Config) { c.Port = "http" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"empty db path", func(c *Config) { c.SQLiteDBPath = "" }},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }},
		{"amqp without exchange", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "" }},
		{"empty jwt secret", func(c *Config) { c.JWTSecret = "" }},
		{"tiny token ttl", func(c *Config) { c.TokenTTL = time.Second }},
		{"tiny otp ttl", func(c *Config) { c.OTPTTL = time.Second }},
		{"tiny sweep interval", func(c *Config) { c.SweepInterval = time.Second }},
		{"huge sweep interval", func(c *Config) { c.SweepInterval = 48 * time.Hour }},
		{"zero lookahead", func(c *Config) { c.ReminderLookahead = 0 }},
		{"huge lookahead", func(c *Config) { c.ReminderLookahead = 1000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "http"
	cfg.JWTSecret = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"port", "JWT secret"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}
