// Package config loads runtime settings from ISPPLUS_* environment variables.
//
// A `.env` file in the working directory is loaded first when present.
// Keys map to sections by their first underscore, so
// ISPPLUS_DATABASE_PATH becomes database.path and
// ISPPLUS_LOG_MAX_SIZE_MB becomes log.max_size_mb.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "ISPPLUS_"

const (
	DefaultDatabasePath  = "./ispplus.db"
	DefaultBusyTimeoutMS = 5000
	DefaultLogLevel      = "info"
	DefaultMaxSizeMB     = 50
	DefaultMaxBackups    = 5
	DefaultMaxAgeDays    = 30
	DefaultCompress      = true
)

// Config is the root configuration object.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
	// BusyTimeoutMS is how long SQLite itself waits on a locked database
	// before reporting SQLITE_BUSY.
	BusyTimeoutMS int `koanf:"busy_timeout_ms" validate:"gte=0"`
}

// LogConfig controls the global logger. File is optional; when empty only
// the console receives output.
type LogConfig struct {
	Level      string `koanf:"level" validate:"oneof=trace debug info warn error"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
	Compress   bool   `koanf:"compress"`
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:          DefaultDatabasePath,
			BusyTimeoutMS: DefaultBusyTimeoutMS,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
			MaxAgeDays: DefaultMaxAgeDays,
			Compress:   DefaultCompress,
		},
	}
}

// Load reads the environment on top of Default and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints declared on the config structs.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// envKey turns ISPPLUS_LOG_MAX_SIZE_MB into log.max_size_mb.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}
