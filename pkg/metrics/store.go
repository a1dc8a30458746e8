package metrics

import (
	"github.com/nkhine/itools/pkg/resource"
)

// NewStoreMetrics creates a new Prometheus-backed resource.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
// When nil is returned, resource.Instrument still traces store calls but
// records nothing.
//
// Example usage:
//
//	metrics.InitRegistry()
//	store = resource.InstrumentStore(store, metrics.NewStoreMetrics())
func NewStoreMetrics() resource.Metrics {
	if !IsEnabled() || newPrometheusStoreMetrics == nil {
		return nil
	}
	return newPrometheusStoreMetrics()
}

// newPrometheusStoreMetrics is implemented in pkg/metrics/prometheus/store.go
var newPrometheusStoreMetrics func() resource.Metrics

// RegisterStoreMetricsConstructor registers the Prometheus store metrics constructor.
// Called by pkg/metrics/prometheus/store.go during package initialization.
func RegisterStoreMetricsConstructor(constructor func() resource.Metrics) {
	newPrometheusStoreMetrics = constructor
}

// SizeRecorder receives on-disk size reports from embedded databases.
type SizeRecorder interface {
	RecordSize(store string, lsm, vlog int64)
}

// NewSizeRecorder returns the Prometheus SizeRecorder, or nil when metrics
// are disabled.
func NewSizeRecorder() SizeRecorder {
	if !IsEnabled() || newPrometheusSizeRecorder == nil {
		return nil
	}
	return newPrometheusSizeRecorder()
}

var newPrometheusSizeRecorder func() SizeRecorder

// RegisterSizeRecorderConstructor registers the Prometheus size recorder constructor.
// Called by pkg/metrics/prometheus/badger.go during package initialization.
func RegisterSizeRecorderConstructor(constructor func() SizeRecorder) {
	newPrometheusSizeRecorder = constructor
}
