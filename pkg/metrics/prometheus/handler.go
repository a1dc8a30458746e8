package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/metrics"
	"github.com/nkhine/itools/pkg/resource"
)

func init() {
	metrics.RegisterHandlerMetricsConstructor(func() handler.Metrics {
		if m := NewHandlerMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// handlerMetrics is the Prometheus implementation of handler.Metrics.
type handlerMetrics struct {
	loadOperations *prometheus.CounterVec
	loadDuration   *prometheus.HistogramVec
	loadBytes      prometheus.Histogram
	saveOperations *prometheus.CounterVec
	saveDuration   *prometheus.HistogramVec
	saveBytes      prometheus.Histogram
	commits        *prometheus.CounterVec
	commitDuration prometheus.Histogram
	commitSaved    prometheus.Histogram
	lookups        *prometheus.CounterVec
	pending        prometheus.Gauge
}

var (
	handlerMu    sync.Mutex
	handlerByReg = map[*prometheus.Registry]*handlerMetrics{}
)

// NewHandlerMetrics creates a new Prometheus-backed handler.Metrics instance.
// Every call against the same registry returns the same collectors.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewHandlerMetrics() *handlerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	handlerMu.Lock()
	defer handlerMu.Unlock()
	if m, ok := handlerByReg[reg]; ok {
		return m
	}

	durationBuckets := []float64{
		0.1,  // 100us - memory stores
		0.5,  // 500us
		1,    // 1ms - local disk
		5,    // 5ms
		10,   // 10ms
		50,   // 50ms - embedded databases under load
		100,  // 100ms - object stores
		500,  // 500ms
		1000, // 1s
	}
	sizeBuckets := []float64{
		256,     // 256B - small config files
		4096,    // 4KB
		32768,   // 32KB
		131072,  // 128KB
		1048576, // 1MB
		4194304, // 4MB
	}

	m := &handlerMetrics{
		loadOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "itools_handler_load_operations_total",
				Help: "Total number of handler loads by kind and status",
			},
			[]string{"kind", "status"},
		),
		loadDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "itools_handler_load_duration_milliseconds",
				Help:    "Duration of handler loads in milliseconds",
				Buckets: durationBuckets,
			},
			[]string{"kind"},
		),
		loadBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "itools_handler_load_bytes",
				Help:    "Distribution of bytes parsed by file loads",
				Buckets: sizeBuckets,
			},
		),
		saveOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "itools_handler_save_operations_total",
				Help: "Total number of handler saves by kind and status",
			},
			[]string{"kind", "status"},
		),
		saveDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "itools_handler_save_duration_milliseconds",
				Help:    "Duration of handler saves in milliseconds",
				Buckets: durationBuckets,
			},
			[]string{"kind"},
		),
		saveBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "itools_handler_save_bytes",
				Help:    "Distribution of bytes written by file saves",
				Buckets: sizeBuckets,
			},
		),
		commits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "itools_session_commits_total",
				Help: "Total number of session commits by status",
			},
			[]string{"status"}, // "success", "error"
		),
		commitDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "itools_session_commit_duration_milliseconds",
				Help:    "Duration of session commits in milliseconds",
				Buckets: durationBuckets,
			},
		),
		commitSaved: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "itools_session_commit_saved_handlers",
				Help:    "Number of handlers flushed per commit",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "itools_folder_lookups_total",
				Help: "Stored child resolutions served from the folder cache (hit) or instantiated (miss)",
			},
			[]string{"status"}, // "hit", "miss"
		),
		pending: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "itools_session_pending_handlers",
				Help: "Current number of handlers with unflushed changes",
			},
		),
	}
	handlerByReg[reg] = m
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func ms(d time.Duration) float64 { return d.Seconds() * 1000 }

func (m *handlerMetrics) ObserveLoad(kind resource.Kind, bytes int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.loadOperations.WithLabelValues(kind.String(), status(err)).Inc()
	m.loadDuration.WithLabelValues(kind.String()).Observe(ms(duration))

	if kind == resource.KindFile && err == nil {
		m.loadBytes.Observe(float64(bytes))
	}
}

func (m *handlerMetrics) ObserveSave(kind resource.Kind, bytes int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.saveOperations.WithLabelValues(kind.String(), status(err)).Inc()
	m.saveDuration.WithLabelValues(kind.String()).Observe(ms(duration))

	if kind == resource.KindFile && err == nil {
		m.saveBytes.Observe(float64(bytes))
	}
}

func (m *handlerMetrics) ObserveCommit(saved int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.commits.WithLabelValues(status(err)).Inc()
	m.commitDuration.Observe(ms(duration))
	m.commitSaved.Observe(float64(saved))
}

func (m *handlerMetrics) RecordLookup(hit bool) {
	if m == nil {
		return
	}

	if hit {
		m.lookups.WithLabelValues("hit").Inc()
		return
	}
	m.lookups.WithLabelValues("miss").Inc()
}

func (m *handlerMetrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}
