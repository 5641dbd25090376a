// Package config reads the kartedit settings from the environment
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment settings of the CLI. Flags override them.
type Config struct {
	LogLevel          string `env:"KARTEDIT_LOG_LEVEL"          envDefault:"warn"`
	JSONLog           bool   `env:"KARTEDIT_JSON_LOG"`
	Backup            bool   `env:"KARTEDIT_BACKUP"             envDefault:"true"`
	BackupDir         string `env:"KARTEDIT_BACKUP_DIR"`
	BackupCompression string `env:"KARTEDIT_BACKUP_COMPRESSION" envDefault:"bzip2"`
}

// Load parses the configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
