package metrics

import (
	"time"
)

// DispatchMetrics provides observability for command dispatch.
//
// This interface is optional - pass nil to disable metrics collection with
// zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	d := fsp.NewDispatcher() // picks up metrics.NewDispatchMetrics()
//
//	// Without metrics (nil, zero overhead)
//	d := fsp.NewDispatcher()
type DispatchMetrics interface {
	// RecordDispatch records a completed dispatch with the target interface,
	// command name, duration, and the result code returned to the caller.
	RecordDispatch(iface string, command string, duration time.Duration, result string)

	// RecordBytesTransferred records bytes moved by a read or write command.
	// direction is "read" or "write".
	RecordBytesTransferred(iface string, direction string, bytes uint64)
}

// NewDispatchMetrics creates a new Prometheus-backed DispatchMetrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewDispatchMetrics() DispatchMetrics {
	if !IsEnabled() || newPrometheusDispatchMetrics == nil {
		return nil
	}

	// The constructor lives in pkg/metrics/prometheus and registers itself
	// at package initialization time. This indirection avoids an import
	// cycle while keeping the API clean.
	return newPrometheusDispatchMetrics()
}

// newPrometheusDispatchMetrics is implemented in pkg/metrics/prometheus/dispatch.go
var newPrometheusDispatchMetrics func() DispatchMetrics

// RegisterDispatchMetricsConstructor registers the Prometheus dispatch
// metrics constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterDispatchMetricsConstructor(constructor func() DispatchMetrics) {
	newPrometheusDispatchMetrics = constructor
}

// ObserveDispatch records a completed dispatch, tolerating a nil metrics
// instance.
func ObserveDispatch(m DispatchMetrics, iface, command string, duration time.Duration, result string) {
	if m != nil {
		m.RecordDispatch(iface, command, duration, result)
	}
}

// ObserveBytes records transferred bytes, tolerating a nil metrics
// instance.
func ObserveBytes(m DispatchMetrics, iface, direction string, bytes uint64) {
	if m != nil {
		m.RecordBytesTransferred(iface, direction, bytes)
	}
}
