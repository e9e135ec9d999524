// Package logger builds the zap logger shared by the loomledger server.
// Every component, from the ledger service to the snapshot scheduler, logs
// through a named child of the logger created here.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the server's root JSON logger. Timestamps use the
// ISO 8601 format under the "timestamp" key so ledger and recorder events
// line up with the snapshot scheduler's cron times in aggregated logs.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Must panics when the root logger cannot be built; the server cannot run
// without one.
func Must(logger *zap.Logger, err error) *zap.Logger {
	if err != nil {
		panic(err)
	}
	return logger
}

// Named returns a child scoped to one component, such as "svc.ledger" or
// "scheduler". A nil base yields a no-op logger so tests can wire services
// without logging.
func Named(base *zap.Logger, component string) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(component)
}
