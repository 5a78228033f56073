// Package logging configures zerolog for the performance service and hands
// out component-scoped loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

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

// Component names used as the "component" field.
const (
	ComponentCache       = "cache"
	ComponentHealth      = "health"
	ComponentMiddleware  = "middleware"
	ComponentPerformance = "performance"
	ComponentServer      = "perf-server"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is added as the "service" field when set.
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Pretty:  false,
		Output:  os.Stderr,
		Service: "perfcache",
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger

	return logger
}

// ParseLevel validates a level name from configuration.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// parseLevel converts LogLevel to zerolog.Level, defaulting to info.
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

// NewLogger creates a logger from the global logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithComponent derives a component logger from base.
func WithComponent(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: per-request cache decisions
//   - Cache hit/miss with key and tier
//   - Promotion of distributed hits (promotion_ttl)
//   - Responses skipped for write-back (status, cancelled context)
//
// Info: lifecycle events
//   - Service, reaper and health sampler start/stop
//   - Distributed tier connected
//   - Health recovered below the memory threshold
//   - Server startup/shutdown
//
// Warn: degraded but serving
//   - Distributed tier unreachable or timing out (fail-open to local)
//   - Circuit breaker state changes
//   - Health WARNING (heap above threshold)
//   - Malformed distributed payloads
//
// Error: conditions requiring attention
//   - Recovered panics in cache code
//   - Configuration errors
//   - Server failed to start
//
// Context Fields:
//   - component: cache, health, middleware, performance, perf-server
//   - key: cache key (METHOD:/path?query)
//   - tier: local or distributed
//   - operation: distributed tier operation (get, set, delete, clear, size, ping)
//   - status: HTTP status code
//   - heap_used, threshold: health sampling figures in bytes
