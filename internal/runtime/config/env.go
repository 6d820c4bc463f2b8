package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// FromEnv builds a Config from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables
// win over .env entries.
func FromEnv() (*Config, error) {
	// Ignore the error: a missing .env file is the normal case.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustFromEnv is FromEnv that panics on error, for use in main functions
// where a bad environment should stop the process immediately.
func MustFromEnv() *Config {
	cfg, err := FromEnv()
	if err != nil {
		panic(fmt.Sprintf("clickflow: loading config from environment: %v", err))
	}
	return cfg
}
