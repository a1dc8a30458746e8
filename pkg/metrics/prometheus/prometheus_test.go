package prometheus

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/metrics"
	"github.com/nkhine/itools/pkg/resource"
)

// The registry is process-global, so these tests do not run in parallel.

func TestDisabledReturnsNil(t *testing.T) {
	metrics.Disable()

	assert.Nil(t, NewHandlerMetrics())
	assert.Nil(t, NewStoreMetrics())
	assert.Nil(t, NewBadgerMetrics())
	assert.Nil(t, metrics.NewHandlerMetrics())
	assert.Nil(t, metrics.NewStoreMetrics())
	assert.Nil(t, metrics.NewSizeRecorder())

	// Nil receivers are safe.
	var m *handlerMetrics
	m.ObserveCommit(1, time.Millisecond, nil)
	m.SetPending(3)
}

func TestHandlerMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Disable)

	m := NewHandlerMetrics()
	require.NotNil(t, m)
	assert.Same(t, m, NewHandlerMetrics(), "collectors are shared per registry")
	assert.NotNil(t, metrics.NewHandlerMetrics())

	m.ObserveLoad(resource.KindFile, 100, time.Millisecond, nil)
	m.ObserveLoad(resource.KindFile, 0, time.Millisecond, errors.New("boom"))
	m.ObserveSave(resource.KindFolder, 0, time.Millisecond, nil)
	m.ObserveCommit(2, 5*time.Millisecond, nil)
	m.RecordLookup(true)
	m.RecordLookup(false)
	m.RecordLookup(false)
	m.SetPending(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadOperations.WithLabelValues("file", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadOperations.WithLabelValues("file", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saveOperations.WithLabelValues("folder", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commits.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.lookups.WithLabelValues("miss")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.pending))
}

func TestStoreMetrics(t *testing.T) {
	reg := metrics.InitRegistry()
	t.Cleanup(metrics.Disable)

	m := NewStoreMetrics()
	require.NotNil(t, m)

	m.ObserveOperation("s3", "write", 20*time.Millisecond, nil)
	m.RecordBytes("s3", "write", 2048)
	m.RecordBytes("s3", "write", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("s3", "write", "success")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.bytesTransferred.WithLabelValues("s3", "write")))

	count, err := testutil.GatherAndCount(reg, "itools_store_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBadgerMetrics(t *testing.T) {
	reg := metrics.InitRegistry()
	t.Cleanup(metrics.Disable)

	rec := metrics.NewSizeRecorder()
	require.NotNil(t, rec)
	rec.RecordSize("badger", 1<<20, 4<<20)

	expected := `
# HELP itools_badger_lsm_size_bytes BadgerDB LSM tree size in bytes
# TYPE itools_badger_lsm_size_bytes gauge
itools_badger_lsm_size_bytes{store="badger"} 1.048576e+06
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "itools_badger_lsm_size_bytes"))
}

func TestWriteTextfile(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Disable)

	NewHandlerMetrics().SetPending(1)

	path := t.TempDir() + "/itools.prom"
	require.NoError(t, metrics.WriteTextfile(path))
	assert.FileExists(t, path)
}
