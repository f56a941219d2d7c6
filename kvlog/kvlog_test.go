package kvlog

import "testing"

func TestNopLoggerDoesNotPanic(t *testing.T) {
	var l Logger = NopLogger{}
	l.Debug("x", nil)
	l.Info("x", map[string]any{"k": "v"})
	l.Warn("x", nil)
	l.Error("x", nil, nil)
}

func TestZerologLoggerImplementsLogger(t *testing.T) {
	var l Logger = NewZerologLogger(LevelInfo)
	l.Info("starting up", map[string]any{"collection": "users"})
}
