// Package logger provides the process-wide structured logger.
//
// It is a thin configuration layer over log/slog: a console handler for
// humans, a JSON handler for machines, and request-scoped fields injected
// from a LogContext carried in the context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

// state is the mutable logger configuration. The level lives in a shared
// slog.LevelVar so changing it does not require rebuilding handlers.
type state struct {
	mu     sync.RWMutex
	out    io.Writer
	color  bool
	format string
	level  slog.LevelVar
	log    *slog.Logger
}

var std = func() *state {
	s := &state{out: os.Stdout, format: "text"}
	if f, ok := s.out.(*os.File); ok {
		s.color = isTerminal(f.Fd())
	}
	s.level.Set(slog.LevelInfo)
	s.rebuild()
	return s
}()

// rebuild swaps the slog handler for the current output and format. Callers
// hold s.mu.
func (s *state) rebuild() {
	opts := &slog.HandlerOptions{Level: &s.level}
	if s.format == "json" {
		s.log = slog.New(slog.NewJSONHandler(s.out, opts))
	} else {
		s.log = slog.New(NewConsoleHandler(s.out, opts, s.color))
	}
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// Init configures the process-wide logger. Output can be "stdout", "stderr",
// or a file path, which is opened for appending.
func Init(cfg Config) error {
	if cfg.Output != "" {
		var out io.Writer
		var color bool

		switch strings.ToLower(cfg.Output) {
		case "stdout":
			out, color = os.Stdout, isTerminal(os.Stdout.Fd())
		case "stderr":
			out, color = os.Stderr, isTerminal(os.Stderr.Fd())
		default:
			f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
			}
			out, color = f, false
		}

		std.mu.Lock()
		std.out = out
		std.color = color
		std.rebuild()
		std.mu.Unlock()
	}

	SetLevel(cfg.Level)
	SetFormat(cfg.Format)
	return nil
}

// InitWithWriter points the logger at a custom writer. Primarily for tests.
func InitWithWriter(w io.Writer, level, format string, enableColor bool) {
	std.mu.Lock()
	std.out = w
	std.color = enableColor
	std.rebuild()
	std.mu.Unlock()

	SetLevel(level)
	SetFormat(format)
}

// SetLevel sets the minimum log level. Unknown levels are ignored.
func SetLevel(level string) {
	if l, ok := parseLevel(level); ok {
		std.level.Set(l)
	}
}

// SetFormat sets the output format, "text" or "json". Unknown formats are
// ignored.
func SetFormat(format string) {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return
	}

	std.mu.Lock()
	std.format = format
	std.rebuild()
	std.mu.Unlock()
}

func current() *slog.Logger {
	std.mu.RLock()
	defer std.mu.RUnlock()
	return std.log
}

// ============================================================================
// Structured Logging API
// ============================================================================

// Debug logs at debug level with structured fields:
// Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Info logs at info level with structured fields.
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Warn logs at warn level with structured fields.
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Error logs at error level with structured fields.
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// ============================================================================
// Context-aware Logging API
// ============================================================================

// DebugCtx logs at debug level, prepending the request fields carried in the
// context's LogContext.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	current().Debug(msg, appendContextFields(ctx, args)...)
}

// InfoCtx logs at info level with context fields.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	current().Info(msg, appendContextFields(ctx, args)...)
}

// WarnCtx logs at warn level with context fields.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	current().Warn(msg, appendContextFields(ctx, args)...)
}

// ErrorCtx logs at error level with context fields.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	current().Error(msg, appendContextFields(ctx, args)...)
}

// appendContextFields prepends LogContext fields so they render before the
// call-site fields.
func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	ctxArgs := make([]any, 0, 3+len(args))
	if lc.Interface != "" {
		ctxArgs = append(ctxArgs, Interface(lc.Interface))
	}
	if lc.Command != "" {
		ctxArgs = append(ctxArgs, Command(lc.Command))
	}
	if lc.Client != "" {
		ctxArgs = append(ctxArgs, Client(lc.Client))
	}
	return append(ctxArgs, args...)
}

// With returns a slog.Logger with pre-bound attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Duration returns the time elapsed since start in milliseconds.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
