// Package log is a thin leveled wrapper over log/slog with per-module child
// loggers. Diagnostics go to stderr; simulation output never goes through
// here.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// LevelTrace sits below debug and is used for per-burst dumps.
const LevelTrace = slog.Level(-8)

type Logger struct {
	inner *slog.Logger
}

var root atomic.Pointer[Logger]

func init() {
	root.Store(New(slog.LevelInfo, os.Stderr))
}

// New creates a Logger writing text records to w at the given level.
func New(level slog.Level, w io.Writer) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok && lv == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
	return &Logger{inner: slog.New(h)}
}

func NewWithHandler(h slog.Handler) *Logger { return &Logger{inner: slog.New(h)} }

// Discard returns a logger that drops everything.
func Discard() *Logger { return New(slog.LevelError+1, io.Discard) }

func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(lvl)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level: %q", lvl)
}

func SetDefault(l *Logger) {
	if l != nil {
		root.Store(l)
	}
}

func Root() *Logger { return root.Load() }

// Module returns a child logger tagged with a "module" attribute.
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Enabled reports whether records at lvl are emitted.
func (l *Logger) Enabled(lvl slog.Level) bool {
	return l.inner.Enabled(context.Background(), lvl)
}

func (l *Logger) Trace(msg string, args ...any) {
	l.inner.Log(context.Background(), LevelTrace, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

func Debug(msg string, args ...any) { Root().Debug(msg, args...) }
func Info(msg string, args ...any)  { Root().Info(msg, args...) }
func Warn(msg string, args ...any)  { Root().Warn(msg, args...) }
func Error(msg string, args ...any) { Root().Error(msg, args...) }
