// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers file and env on top.
// - All loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig, loading failures ErrLoadConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxParticipants caps the participants of a single round request.
	MaxParticipants int `koanf:"max_participants"`

	// MaxAssets caps the assets of a single challenge.
	MaxAssets int `koanf:"max_assets"`

	// MaxBodyBytes caps HTTP request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// ErrorWorkers bounds concurrent challenge error computations per round.
	ErrorWorkers int `koanf:"error_workers"`

	// RequestTimeoutMS bounds the handling time of one HTTP request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		MaxParticipants:  10_000,
		MaxAssets:        1_000,
		MaxBodyBytes:     32 << 20,
		ErrorWorkers:     runtime.NumCPU() * 2,
		RequestTimeoutMS: 30_000,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxParticipants <= 0:
		return fmt.Errorf("%w: max_participants must be positive", ErrInvalidConfig)
	case c.MaxAssets <= 0:
		return fmt.Errorf("%w: max_assets must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case c.ErrorWorkers <= 0:
		return fmt.Errorf("%w: error_workers must be positive", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
