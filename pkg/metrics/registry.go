// Package metrics owns the Prometheus registry and hands out metric sinks
// for the handler tree and the backing stores.
//
// Metrics are opt-in. Until InitRegistry is called every constructor
// returns nil, and the consumers treat a nil sink as "metrics disabled"
// with zero overhead. The Prometheus implementations live in the
// prometheus sub-package, which registers its constructors in init();
// import it for side effects to enable them:
//
//	import _ "github.com/nkhine/itools/pkg/metrics/prometheus"
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry creates the registry and enables metrics. Go runtime and
// process collectors are registered alongside the itools metrics. Calling
// it again replaces the registry.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mu.Lock()
	registry = reg
	mu.Unlock()
	return reg
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Disable drops the registry. Constructors return nil afterwards.
func Disable() {
	mu.Lock()
	registry = nil
	mu.Unlock()
}

// WriteTextfile writes the current metrics to path in the Prometheus text
// format, for collection by the node exporter textfile collector. It is a
// no-op when metrics are disabled.
func WriteTextfile(path string) error {
	reg := GetRegistry()
	if reg == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, reg)
}
