package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	level = new(slog.LevelVar)

	mu   sync.RWMutex
	base = newHandler(os.Stdout)
	host = hostname()
)

func newHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// SetLevel switches the process-wide level. Unknown values fall back to INFO.
func SetLevel(s string) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		level.Set(slog.LevelDebug)
	case "WARN", "WARNING":
		level.Set(slog.LevelWarn)
	case "ERROR":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// SetOutput redirects every logger created afterwards.
func SetOutput(w io.Writer) {
	mu.Lock()
	base = newHandler(w)
	mu.Unlock()
}

// Logger writes one JSON line per event, tagged with the owning service and
// an action name that is stable enough to grep for.
type Logger struct {
	service string
	sl      *slog.Logger
}

func New(service string) *Logger {
	mu.RLock()
	h := base
	mu.RUnlock()
	return &Logger{
		service: service,
		sl:      slog.New(h).With("service", service, "hostname", host),
	}
}

// Nop discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{service: "nop", sl: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

// With returns a logger that repeats the given fields on every line.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{service: l.service, sl: l.sl.With(attrs(fields)...)}
}

func (l *Logger) log(lvl slog.Level, action string, fields map[string]any, err error) {
	args := append([]any{"action", action}, attrs(fields)...)
	if err != nil {
		args = append(args, slog.Group("error", "msg", err.Error()))
	}
	l.sl.Log(context.Background(), lvl, action, args...)
}

func (l *Logger) Debug(action string, fields map[string]any) { l.log(slog.LevelDebug, action, fields, nil) }
func (l *Logger) Info(action string, fields map[string]any)  { l.log(slog.LevelInfo, action, fields, nil) }
func (l *Logger) Warn(action string, err error, fields map[string]any) {
	l.log(slog.LevelWarn, action, fields, err)
}
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(slog.LevelError, action, fields, err)
}

func attrs(fields map[string]any) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

func hostname() string { h, _ := os.Hostname(); return h }
