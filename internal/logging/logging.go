// Package logging provides the process-wide structured logger.
package logging

import (
	"os"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	defaultLogger *bolt.Logger
	once          sync.Once
)

// Config configures the logger.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `toml:"level"`

	// Format is the output format (json or console).
	Format string `toml:"format"`
}

// DefaultConfig returns console logging at info level.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

func parseLevel(level string) bolt.Level {
	switch level {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// Init initializes the default logger. Subsequent calls are no-ops.
func Init(config Config) {
	once.Do(func() {
		var handler bolt.Handler
		if config.Format == "json" {
			handler = bolt.NewJSONHandler(os.Stderr)
		} else {
			handler = bolt.NewConsoleHandler(os.Stderr)
		}
		defaultLogger = bolt.New(handler).SetLevel(parseLevel(config.Level))
	})
}

// Get returns the default logger, initializing it if necessary.
func Get() *bolt.Logger {
	if defaultLogger == nil {
		Init(DefaultConfig())
	}
	return defaultLogger
}

// Debug starts a debug-level event on the default logger.
func Debug() *bolt.Event { return Get().Debug() }

// Info starts an info-level event on the default logger.
func Info() *bolt.Event { return Get().Info() }

// Warn starts a warn-level event on the default logger.
func Warn() *bolt.Event { return Get().Warn() }

// Error starts an error-level event on the default logger.
func Error() *bolt.Event { return Get().Error() }
