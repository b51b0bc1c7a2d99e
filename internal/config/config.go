package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AdsURL      string        `env:"ADS_API_URL"`
	SinkURL     string        `env:"SINK_URL"`
	SinkSecret  string        `env:"SINK_SECRET"`
	Port        string        `env:"PORT" envDefault:"8080"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	RetryBase   time.Duration `env:"RETRY_BASE" envDefault:"100ms"`
	RetryMax    int           `env:"RETRY_MAX" envDefault:"2"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	IDMode      string        `env:"ID_MODE" envDefault:"uuid"`
	SeedClients []string      `env:"SEED_CLIENTS" envSeparator:","`
}

// FromEnv reads an optional .env file and then the process environment.
func FromEnv() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	switch cfg.IDMode {
	case "uuid", "sequence":
	default:
		return Config{}, fmt.Errorf("ID_MODE must be uuid or sequence, got %q", cfg.IDMode)
	}
	return cfg, nil
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (c Config) SinkConfigured() bool { return c.SinkURL != "" && c.SinkSecret != "" }
