// Package logger provides the structured logging facade used across kpiwatch.
// It wraps log/slog behind a small interface so components can be tested
// with a discard logger and so field construction stays allocation-cheap.
package logger

import (
	"io"
	"log/slog"
	"time"
)

// LogLevel controls the minimum level a logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Field is a typed key/value pair attached to a log record.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging interface consumed by all kpiwatch packages.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field constructors. Keep these in sync with slog's native kinds so the
// backend can pass values through without reflection surprises.

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field   { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}
func Time(key string, value time.Time) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field        { return Field{Key: key, Value: value} }

// Error attaches an error under the conventional "error" key.
// A nil error logs as an empty string rather than panicking.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

// slogLogger backs Logger with a slog.Logger.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger creates a Logger writing JSON records to w at the given
// level. Extra attrs, if any, are attached to every record.
func NewSlogLogger(w io.Writer, level LogLevel, attrs []Field) Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
	l := slog.New(h)
	if len(attrs) > 0 {
		l = l.With(toArgs(attrs)...)
	}
	return &slogLogger{l: l}
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func toArgs(fields []Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

func (s *slogLogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, toArgs(fields)...) }
func (s *slogLogger) Info(msg string, fields ...Field)  { s.l.Info(msg, toArgs(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, toArgs(fields)...) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.l.Error(msg, toArgs(fields)...) }

func (s *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{l: s.l.With(toArgs(fields)...)}
}
