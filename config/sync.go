package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// SyncConfig holds configuration for the sibling sync tool. It needs no credentials.
type SyncConfig struct {
	Manifest  string `env:"MANIFEST"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// LoadSync loads the sibling sync configuration from SYNC_* variables
func LoadSync() (*SyncConfig, error) {
	_ = godotenv.Load()

	cfg := &SyncConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "SYNC_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	return cfg, nil
}
