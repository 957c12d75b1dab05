// Package logger builds the structured zap logger that is handed to every
// component at startup.
package logger

import (
	"go.uber.org/zap"
)

// New builds a sugared logger for the given environment.
// For "production", it uses a JSON encoder. For all other environments,
// it uses a human-readable console encoder.
func New(env string) *zap.SugaredLogger {
	var base *zap.Logger
	var err error

	if env == "production" {
		base, err = zap.NewProduction()
	} else {
		base, err = zap.NewDevelopment()
	}

	if err != nil {
		// Fallback to nop logger if initialization fails.
		base = zap.NewNop()
	}

	return base.Sugar()
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync(log *zap.SugaredLogger) {
	if log != nil {
		_ = log.Sync()
	}
}
