// Package prometheus contains the Prometheus implementations of the metrics
// interfaces in pkg/metrics. Importing this package (typically blank-imported
// from main) registers the constructors.
package prometheus

import (
	"time"

	"github.com/nxemu/fspsrv/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// dispatchMetrics is the Prometheus implementation of metrics.DispatchMetrics.
type dispatchMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
}

func init() {
	metrics.RegisterDispatchMetricsConstructor(newDispatchMetrics)
}

// newDispatchMetrics creates a new Prometheus-backed DispatchMetrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func newDispatchMetrics() metrics.DispatchMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &dispatchMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fspsrv_dispatch_requests_total",
				Help: "Total dispatched requests by interface, command, and result code",
			},
			[]string{"interface", "command", "result"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fspsrv_dispatch_duration_seconds",
				Help:    "Dispatch latency by interface and command",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"interface", "command"},
		),
		bytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fspsrv_dispatch_bytes_total",
				Help: "Bytes transferred by read/write commands, by interface and direction",
			},
			[]string{"interface", "direction"},
		),
	}
}

// RecordDispatch records a completed dispatch.
func (m *dispatchMetrics) RecordDispatch(iface, command string, duration time.Duration, result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(iface, command, result).Inc()
	m.duration.WithLabelValues(iface, command).Observe(duration.Seconds())
}

// RecordBytesTransferred records bytes moved by a read or write command.
func (m *dispatchMetrics) RecordBytesTransferred(iface, direction string, bytes uint64) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(iface, direction).Add(float64(bytes))
}
