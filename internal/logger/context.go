package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single dispatch.
type LogContext struct {
	Interface string    // Interface name of the target session (Proxy, FileSession, ...)
	Command   string    // Command name being dispatched (Read, OpenFile, ...)
	CommandID uint32    // Numeric command id from the request
	Client    string    // Identifier of the requesting client, if known
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a dispatch that starts now.
func NewLogContext(iface string) *LogContext {
	return &LogContext{
		Interface: iface,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithCommand returns a copy with the command name and id set
func (lc *LogContext) WithCommand(name string, id uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Command = name
		clone.CommandID = id
	}
	return clone
}

// WithClient returns a copy with the client identifier set
func (lc *LogContext) WithClient(client string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Client = client
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
