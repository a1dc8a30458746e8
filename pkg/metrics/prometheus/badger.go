package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nkhine/itools/pkg/metrics"
)

func init() {
	metrics.RegisterSizeRecorderConstructor(func() metrics.SizeRecorder {
		if m := NewBadgerMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// badgerMetrics is the Prometheus implementation for BadgerDB metrics.
type badgerMetrics struct {
	lsmSize  *prometheus.GaugeVec
	vlogSize *prometheus.GaugeVec
}

var (
	badgerMu    sync.Mutex
	badgerByReg = map[*prometheus.Registry]*badgerMetrics{}
)

// NewBadgerMetrics creates a new Prometheus-backed BadgerDB metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewBadgerMetrics() *badgerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	badgerMu.Lock()
	defer badgerMu.Unlock()
	if m, ok := badgerByReg[reg]; ok {
		return m
	}

	m := &badgerMetrics{
		lsmSize: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "itools_badger_lsm_size_bytes",
				Help: "BadgerDB LSM tree size in bytes",
			},
			[]string{"store"},
		),
		vlogSize: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "itools_badger_vlog_size_bytes",
				Help: "BadgerDB value log size in bytes",
			},
			[]string{"store"},
		),
	}
	badgerByReg[reg] = m
	return m
}

// RecordSize records the on-disk LSM and value log sizes.
func (m *badgerMetrics) RecordSize(store string, lsm, vlog int64) {
	if m == nil {
		return
	}
	m.lsmSize.WithLabelValues(store).Set(float64(lsm))
	m.vlogSize.WithLabelValues(store).Set(float64(vlog))
}
