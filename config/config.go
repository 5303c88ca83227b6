// Package config loads settings from the environment and an optional .env
// file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every environment variable name.
const Prefix = "OURFINANCE_"

// Config holds all application configuration.
type Config struct {
	// Ledger
	LedgerFile string `env:"LEDGER_FILE"`
	Currency   string `env:"CURRENCY"`

	// HTTP Server
	HTTPHost            string        `env:"HTTP_HOST"             envDefault:"localhost"`
	HTTPPort            int           `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Watch               bool          `env:"WATCH"                 envDefault:"true"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Forecast defaults
	ForecastWindow      int    `env:"FORECAST_WINDOW"      envDefault:"12"`
	ForecastHorizon     int    `env:"FORECAST_HORIZON"     envDefault:"12"`
	ForecastGranularity string `env:"FORECAST_GRANULARITY" envDefault:"monthly"`
	ScenarioFile        string `env:"SCENARIO_FILE"`
}

// Load reads configuration from OURFINANCE_* environment variables. A .env
// file in the working directory is loaded first when present; an explicit
// envFile must exist. Variables already set in the environment win over
// the file.
func Load(envFile ...string) (*Config, error) {
	if len(envFile) > 0 && envFile[0] != "" {
		if err := godotenv.Load(envFile[0]); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
