// Package logging configures zerolog for the edge and its commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// TimeFormat is used by the console writer when Pretty is set.
	TimeFormat string

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Pretty:     false,
		Output:     os.Stderr,
		TimeFormat: time.Kitchen,
	}
}

// ParseLevel converts a configured level name, rejecting unknown names.
func ParseLevel(name string) (LogLevel, error) {
	switch LogLevel(strings.ToLower(name)) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return LogLevel(strings.ToLower(name)), nil
	case "warning":
		return LevelWarn, nil
	default:
		return "", fmt.Errorf("unknown log level %q", name)
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: cfg.TimeFormat}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache lookups (bucket, hit/miss, key)
//   - Request classification and chosen strategy
//   - Ignored background sync tags
//
// Info: Normal operation events
//   - Worker install and activation, stale buckets deleted
//   - Shell population finished
//   - Backend probe results
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Offline fallbacks (cached copy, offline page, placeholder)
//   - Retry attempts
//   - Cache write errors (response still served)
//   - Seed rows whose featured flag could not be set
//
// Error: Error conditions requiring attention
//   - Shell population failures
//   - Pass-through requests that failed at the network
//   - Push delivery failures
//   - Configuration errors
//
// Context Fields:
//   - component: Emitting package (router, worker, cache, edge, ...)
//   - url: Absolute request URL
//   - class: Request class (static, image, navigation, other)
//   - bucket: Cache bucket name
//   - source: Where a response came from (cache, network, offline_page, ...)
//   - status_code: HTTP status code
//   - error_class: Error classification (client, server, network)
//   - request_id: Edge request ID
