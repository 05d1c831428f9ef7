// Package config contains configuration for the Ableton bridge.
package config

import (
	"time"

	"github.com/abletonmcp/abletonmcp/internal/live"
)

// Config holds the complete bridge configuration.
type Config struct {
	// SocketPath is the Unix socket address of the Ableton remote script.
	SocketPath string

	// MaxAttempts bounds connection acquisition attempts.
	MaxAttempts int

	// RetryBackoff is the wait between acquisition attempts.
	RetryBackoff time.Duration

	// DialTimeout bounds each individual socket dial.
	DialTimeout time.Duration

	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		SocketPath:   live.DefaultSocketPath,
		MaxAttempts:  3,
		RetryBackoff: time.Second,
		DialTimeout:  5 * time.Second,
		LogLevel:     "info",
	}
}

// ManagerOptions converts the config into live.Options. The logger is left
// for the caller to attach.
func (c *Config) ManagerOptions() live.Options {
	return live.Options{
		SocketPath:   c.SocketPath,
		MaxAttempts:  c.MaxAttempts,
		RetryBackoff: c.RetryBackoff,
		DialTimeout:  c.DialTimeout,
	}
}
