package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nkhine/itools/pkg/metrics"
	"github.com/nkhine/itools/pkg/resource"
)

func init() {
	metrics.RegisterStoreMetricsConstructor(func() resource.Metrics {
		if m := NewStoreMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// storeMetrics is the Prometheus implementation of resource.Metrics.
type storeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

var (
	storeMu    sync.Mutex
	storeByReg = map[*prometheus.Registry]*storeMetrics{}
)

// NewStoreMetrics creates a new Prometheus-backed resource.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewStoreMetrics() *storeMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	storeMu.Lock()
	defer storeMu.Unlock()
	if m, ok := storeByReg[reg]; ok {
		return m
	}

	m := &storeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "itools_store_operations_total",
				Help: "Total number of backing store operations by store, operation and status",
			},
			[]string{"store", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "itools_store_operation_duration_milliseconds",
				Help: "Duration of backing store operations in milliseconds",
				Buckets: []float64{
					0.1,   // 100us - memory
					1,     // 1ms - local disk, badger
					10,    // 10ms - sql
					50,    // 50ms - small object operations
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s - large objects
					5000,  // 5s
					30000, // 30s - very large operations
				},
			},
			[]string{"store", "operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "itools_store_bytes_transferred_total",
				Help: "Total payload bytes moved through backing stores",
			},
			[]string{"store", "operation"},
		),
	}
	storeByReg[reg] = m
	return m
}

func (m *storeMetrics) ObserveOperation(store, op string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.operationsTotal.WithLabelValues(store, op, status(err)).Inc()
	m.operationDuration.WithLabelValues(store, op).Observe(ms(duration))
}

func (m *storeMetrics) RecordBytes(store, op string, bytes int) {
	if m == nil || bytes <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(store, op).Add(float64(bytes))
}
