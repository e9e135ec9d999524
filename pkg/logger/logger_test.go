package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	log, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log == nil {
		t.Fatal("New returned a nil logger")
	}
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("root logger should log at info level")
	}
}

func TestNamedNilBase(t *testing.T) {
	log := Named(nil, "svc.ledger")
	if log == nil {
		t.Fatal("Named(nil) returned nil")
	}
	if log.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("nil base should yield a no-op logger")
	}
}
