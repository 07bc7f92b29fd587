// Package config holds the environment defaults for command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config is read from RECALL_* environment variables. Flags override it.
type Config struct {
	DB          string `env:"RECALL_DB"          envDefault:"recall.db" validate:"required"`
	DBDriver    string `env:"RECALL_DB_DRIVER"   envDefault:"sqlite3"   validate:"oneof=sqlite3 sqlite"`
	DataDir     string `env:"RECALL_DATA_DIR"    envDefault:"."         validate:"required"`
	Participant string `env:"RECALL_PARTICIPANT"`
	Protocols   string `env:"RECALL_PROTOCOLS"`
	LogLevel    string `env:"RECALL_LOG_LEVEL"   envDefault:"info"      validate:"oneof=debug info warn error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
