// Package metrics provides optional Prometheus observability for the
// dispatch engine.
//
// Metrics are opt-in: nothing is registered or recorded until InitRegistry
// is called. Constructors return nil when metrics are disabled, and every
// helper is nil-safe, so disabled metrics cost nothing on the dispatch
// path.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
)

// InitRegistry creates the process-wide Prometheus registry. Call once at
// startup, before constructing any metrics instances. Calling it again is a
// no-op.
func InitRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry != nil
}

// GetRegistry returns the process-wide registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}
