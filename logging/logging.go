// Package logging sets up the process-wide structured logger. It
// replaces the teacher's ad-hoc log.Printf("[TAG] ...") convention with
// zap fields carrying the same tags, so log lines stay greppable
// without hand-formatted prefixes.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thin alias so callers don't need to import zap directly.
type Logger = zap.SugaredLogger

// New builds a production-shaped logger at the given level ("debug",
// "info", "warn", "error"; unknown values fall back to "info").
func New(level string) *Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op logger rather than crashing the process
		// over a logging misconfiguration.
		logger = zap.NewNop()
	}
	return logger.Sugar()
}

// Nop returns a logger that discards everything, for tests.
func Nop() *Logger {
	return zap.NewNop().Sugar()
}

// Room returns a child logger tagged with a room code, mirroring the
// teacher's "[TAG] lobbyID ..." convention as a structured field
// instead of a string prefix.
func Room(l *Logger, code string) *Logger {
	return l.With("room", code)
}
