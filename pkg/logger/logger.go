
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	internal *slog.Logger
}

// New logs at info level to stderr.
func New() *Logger { return NewWithLevel("info") }

func NewWithLevel(level string) *Logger {
	return NewWriter(os.Stderr, level)
}

func NewWriter(w io.Writer, level string) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &Logger{internal: slog.New(handler)}
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a logger that adds the key/value pairs to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{internal: l.internal.With(args...)}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.internal.Debug(fmt.Sprintf(format, args...))
}
func (l *Logger) Infof(format string, args ...any) {
	l.internal.Info(fmt.Sprintf(format, args...))
}
func (l *Logger) Warnf(format string, args ...any) {
	l.internal.Warn(fmt.Sprintf(format, args...))
}
func (l *Logger) Errorf(format string, args ...any) {
	l.internal.Error(fmt.Sprintf(format, args...))
}
