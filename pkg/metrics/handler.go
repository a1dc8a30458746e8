package metrics

import (
	"github.com/nkhine/itools/pkg/handler"
)

// NewHandlerMetrics creates a new Prometheus-backed handler.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// prometheus package was not imported. When nil is returned, callers should
// pass nil to handler.WithMetrics, which results in zero overhead.
//
// Example usage:
//
//	metrics.InitRegistry()
//	sess := handler.NewSession(handler.WithMetrics(metrics.NewHandlerMetrics()))
func NewHandlerMetrics() handler.Metrics {
	if !IsEnabled() || newPrometheusHandlerMetrics == nil {
		return nil
	}
	return newPrometheusHandlerMetrics()
}

// newPrometheusHandlerMetrics is implemented in pkg/metrics/prometheus/handler.go
// This indirection avoids import cycles while keeping the API clean
var newPrometheusHandlerMetrics func() handler.Metrics

// RegisterHandlerMetricsConstructor registers the Prometheus handler metrics constructor.
// Called by pkg/metrics/prometheus/handler.go during package initialization.
func RegisterHandlerMetricsConstructor(constructor func() handler.Metrics) {
	newPrometheusHandlerMetrics = constructor
}
