// Package kvlog provides the structured logging interface shared by every
// store and wrapper in kvs. It mirrors bifrost's pattern of wrapping a
// structured logger behind a small domain interface instead of depending on
// the logging library directly throughout the codebase.
package kvlog

import (
	"os"

	"github.com/rs/zerolog"
)

// Level is the severity of a log message.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Logger is the logging interface every store/wrapper accepts. fields carry
// structured context (collection, key, op, duration, etc.) alongside msg.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
}

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger builds a ZerologLogger writing to stdout at level.
func NewZerologLogger(level Level) *ZerologLogger {
	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zl = zl.Level(toZerologLevel(level))
	return &ZerologLogger{logger: zl}
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func withFields(event *zerolog.Event, fields map[string]any) *zerolog.Event {
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	return event
}

func (l *ZerologLogger) Debug(msg string, fields map[string]any) {
	withFields(l.logger.Debug(), fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields map[string]any) {
	withFields(l.logger.Info(), fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]any) {
	withFields(l.logger.Warn(), fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, err error, fields map[string]any) {
	event := l.logger.Error()
	if err != nil {
		event = event.Err(err)
	}
	withFields(event, fields).Msg(msg)
}

// NopLogger discards every message; it is the default when no Logger is
// configured.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]any)        {}
func (NopLogger) Info(string, map[string]any)         {}
func (NopLogger) Warn(string, map[string]any)         {}
func (NopLogger) Error(string, error, map[string]any) {}

var _ Logger = (*ZerologLogger)(nil)
var _ Logger = NopLogger{}
