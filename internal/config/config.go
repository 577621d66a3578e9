// Package config loads server configuration from the environment (and
// an optional .env file), validates it, and exposes it for logging.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every knob the server needs that is not itself part of
// the core domain (ticker inventory is loaded separately, per the
// spec's explicit non-goal on ticker-file parsing).
type Config struct {
	ControlAddr   string `env:"QS_CONTROL_ADDR" envDefault:":7878"`
	HeartbeatAddr string `env:"QS_HEARTBEAT_ADDR" envDefault:":34254"`

	TickInterval time.Duration `env:"QS_TICK_INTERVAL" envDefault:"500ms"`
	Volatility   float64       `env:"QS_VOLATILITY" envDefault:"0.01"`

	HeartbeatTimeout  time.Duration `env:"QS_HEARTBEAT_TIMEOUT" envDefault:"15s"`
	ReaperInterval    time.Duration `env:"QS_REAPER_INTERVAL" envDefault:"1s"`
	// SubscriptionQueue is validated and logged only; subscription queues
	// are always created with quote's fixed capacity of 256.
	SubscriptionQueue int           `env:"QS_SUBSCRIPTION_QUEUE_SIZE" envDefault:"256"`

	MaxAcceptRate   float64 `env:"QS_MAX_ACCEPT_RATE" envDefault:"50"`
	MaxAcceptBurst  int     `env:"QS_MAX_ACCEPT_BURST" envDefault:"100"`
	MaxPingRate     float64 `env:"QS_MAX_PING_RATE" envDefault:"5"`
	MaxPingBurst    int     `env:"QS_MAX_PING_BURST" envDefault:"10"`

	MetricsAddr     string        `env:"QS_METRICS_ADDR" envDefault:":9090"`
	MetricsInterval time.Duration `env:"QS_METRICS_INTERVAL" envDefault:"15s"`

	NATSURL     string `env:"QS_NATS_URL" envDefault:""`
	NATSSubject string `env:"QS_NATS_SUBJECT" envDefault:"quoteserver.lifecycle"`

	LogLevel  string `env:"QS_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"QS_LOG_FORMAT" envDefault:"json"`

	TickerFile string `env:"QS_TICKER_FILE" envDefault:"tickers.json"`
}

// Load reads .env (if present), then environment variables, applies
// defaults, and validates the result. Grounded on
// _examples/adred-codev-ws_poc/ws/config.go's LoadConfig.
func Load(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Info().Msg("no .env file found, using environment variables only")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a working server.
func (c *Config) Validate() error {
	if c.ControlAddr == "" {
		return fmt.Errorf("QS_CONTROL_ADDR is required")
	}
	if c.HeartbeatAddr == "" {
		return fmt.Errorf("QS_HEARTBEAT_ADDR is required")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("QS_TICK_INTERVAL must be > 0, got %s", c.TickInterval)
	}
	if c.Volatility < 0 || c.Volatility > 1 {
		return fmt.Errorf("QS_VOLATILITY must be in [0,1], got %f", c.Volatility)
	}
	if c.HeartbeatTimeout <= 0 {
		return fmt.Errorf("QS_HEARTBEAT_TIMEOUT must be > 0, got %s", c.HeartbeatTimeout)
	}
	if c.SubscriptionQueue < 1 {
		return fmt.Errorf("QS_SUBSCRIPTION_QUEUE_SIZE must be > 0, got %d", c.SubscriptionQueue)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("QS_LOG_LEVEL must be one of debug,info,warn,error (got %s)", c.LogLevel)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("QS_LOG_FORMAT must be one of json,console (got %s)", c.LogFormat)
	}
	return nil
}

// LogFields logs the loaded configuration at startup.
func (c *Config) LogFields(logger zerolog.Logger) {
	logger.Info().
		Str("control_addr", c.ControlAddr).
		Str("heartbeat_addr", c.HeartbeatAddr).
		Dur("tick_interval", c.TickInterval).
		Float64("volatility", c.Volatility).
		Dur("heartbeat_timeout", c.HeartbeatTimeout).
		Int("subscription_queue_size", c.SubscriptionQueue).
		Float64("max_accept_rate", c.MaxAcceptRate).
		Float64("max_ping_rate", c.MaxPingRate).
		Str("metrics_addr", c.MetricsAddr).
		Bool("nats_enabled", c.NATSURL != "").
		Str("log_level", c.LogLevel).
		Msg("configuration loaded")
}
