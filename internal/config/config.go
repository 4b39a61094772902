// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/matthewbaird/gigwizard/internal/storage"
)

// Config holds the server settings.
type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	// DatabaseURL is the SQLite DSN for drafts, and for gigs when PostgresURL is empty.
	DatabaseURL string `env:"DATABASE_URL"`
	// PostgresURL moves gigs and the activity stream to Postgres when set.
	PostgresURL string `env:"POSTGRES_URL"`

	DraftDebounce      time.Duration `env:"DRAFT_DEBOUNCE" envDefault:"1s"`
	SessionMaxAge      time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	SessionSweep       time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	EventBuffer        int           `env:"EVENT_BUFFER" envDefault:"256"`

	// FlowsFile overrides the built-in step orders with a CUE file.
	FlowsFile string `env:"WIZARD_FLOWS_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional .env file, then parses the environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = storage.DefaultSQLiteDSN
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	if cfg.DraftDebounce <= 0 {
		return Config{}, fmt.Errorf("DRAFT_DEBOUNCE must be positive, got %s", cfg.DraftDebounce)
	}
	if cfg.SessionSweep <= 0 {
		return Config{}, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", cfg.SessionSweep)
	}
	return cfg, nil
}
