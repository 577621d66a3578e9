package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		ControlAddr:       ":7878",
		HeartbeatAddr:     ":34254",
		TickInterval:      500 * time.Millisecond,
		Volatility:        0.01,
		HeartbeatTimeout:  15 * time.Second,
		SubscriptionQueue: 256,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	c := validConfig()
	c.LogLevel = "verbose"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidateRejectsZeroTickInterval(t *testing.T) {
	c := validConfig()
	c.TickInterval = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for zero tick interval")
	}
}

func TestValidateRejectsEmptyControlAddr(t *testing.T) {
	c := validConfig()
	c.ControlAddr = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for empty control addr")
	}
}
