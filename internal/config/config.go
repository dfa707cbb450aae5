// Package config loads host configuration from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer is returned when a nil pointer is provided to Load
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)

// Runtime is the configuration of the demo host.
type Runtime struct {
	LogLevel   string        `env:"MSTATE_LOG_LEVEL" envDefault:"info"`
	LogFormat  string        `env:"MSTATE_LOG_FORMAT" envDefault:"text"`
	TickRate   time.Duration `env:"MSTATE_TICK_RATE" envDefault:"20ms"`
	QueueLimit int           `env:"MSTATE_QUEUE_LIMIT" envDefault:"256"`
	MaxPasses  int           `env:"MSTATE_MAX_PASSES" envDefault:"64"`
	Document   string        `env:"MSTATE_DOCUMENT"`
	RunFor     time.Duration `env:"MSTATE_RUN_FOR" envDefault:"3s"`
}

// LoadEnv loads the given .env files into the process environment. Missing
// files are skipped; variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load parses environment variables into v based on its `env` tags.
//
// Example:
//
//	var cfg config.Runtime
//	if err := config.Load(&cfg); err != nil {
//		// Handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}
