package qlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with convenience methods
type Logger struct {
	*slog.Logger
}

// simpleHandler formats logs in a clean, CLI-friendly way
type simpleHandler struct {
	level  slog.Leveler
	output io.Writer
	attrs  []slog.Attr
}

func (h *simpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *simpleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	switch {
	case r.Level >= slog.LevelError:
		b.WriteString("❌ ")
	case r.Level >= slog.LevelWarn:
		b.WriteString("⚠️  ")
	case r.Level >= slog.LevelInfo:
		b.WriteString("ℹ️  ")
	default:
		b.WriteString("🔍 ")
	}

	b.WriteString(r.Message)

	first := true
	write := func(a slog.Attr) bool {
		if first {
			b.WriteString(" ")
			first = false
		} else {
			b.WriteString(", ")
		}
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(a.Value.String())
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	b.WriteString("\n")
	_, err := h.output.Write([]byte(b.String()))
	return err
}

func (h *simpleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &simpleHandler{level: h.level, output: h.output, attrs: merged}
}

func (h *simpleHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened in CLI output
	return h
}

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new logger with the specified level and output
func NewLogger(level slog.Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	handler := &simpleHandler{
		level:  level,
		output: output,
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// New builds a logger for servers: JSON lines when format is "json", the CLI
// handler otherwise.
func New(level, format string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	lvl := ParseLevel(level)
	if Format(strings.ToLower(format)) == FormatJSON {
		return &Logger{Logger: slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: lvl}))}
	}
	return NewLogger(lvl, output)
}

// NewDiscard drops everything. Used by tests.
func NewDiscard() *Logger {
	return NewLogger(slog.LevelError+1, io.Discard)
}

// With returns a logger that always includes the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Fatal logs at ERROR level and exits with code 1
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}

// Fatalf formats and logs at ERROR level, then exits with code 1
func (l *Logger) Fatalf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
