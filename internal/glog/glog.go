// Package glog is the runtime's structured logger. The runtime logs only
// programmer-error diagnostics: failures it can neither return nor panic on,
// such as a getter erroring inside a notify dispatch. Debug output is off
// unless TETHER_DEBUG is set.
package glog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	level := zerolog.WarnLevel
	if os.Getenv("TETHER_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// SetOutput redirects all runtime logging, so tests can assert diagnostics.
func SetOutput(l zerolog.Logger) {
	logger = l
}

// Debug starts a debug-level event.
func Debug() *zerolog.Event {
	return logger.Debug()
}

// Warn starts a warn-level event.
func Warn() *zerolog.Event {
	return logger.Warn()
}

// Critical starts an error-level event for contract violations the runtime
// survives but cannot report to the caller.
func Critical() *zerolog.Event {
	return logger.Error()
}
