package resource_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/resource"
	"github.com/nkhine/itools/pkg/resource/memory"
	"github.com/nkhine/itools/pkg/resource/resourcetest"
)

type recordingMetrics struct {
	mu    sync.Mutex
	ops   map[string]int
	bytes map[string]int
	fails int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{ops: make(map[string]int), bytes: make(map[string]int)}
}

func (m *recordingMetrics) ObserveOperation(store, op string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[store+"/"+op]++
	if err != nil {
		m.fails++
	}
}

func (m *recordingMetrics) RecordBytes(store, op string, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes[store+"/"+op] += bytes
}

func TestInstrumentConformance(t *testing.T) {
	resourcetest.RunConformanceSuite(t, func(t *testing.T) resource.Store {
		return resource.InstrumentStore(memory.New(), newRecordingMetrics())
	})
}

func TestInstrumentRecords(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	m := newRecordingMetrics()
	root := resource.Instrument(memory.New().Root(), "memory", m)

	dir, err := root.Create(ctx, "dir", resource.KindFolder)
	require.NoError(t, err)
	f, err := dir.(resource.Container).Create(ctx, "f", resource.KindFile)
	require.NoError(t, err)
	require.NoError(t, f.Write(ctx, []byte("hello")))
	require.NoError(t, f.Append(ctx, []byte("!")))
	data, err := f.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello!", string(data))

	_, err = root.Create(ctx, "dir", resource.KindFolder)
	require.ErrorIs(t, err, resource.ErrExists)

	_, err = root.List(ctx)
	require.NoError(t, err)
	require.NoError(t, root.DeleteChild(ctx, "dir"))

	assert.Equal(t, map[string]int{
		"memory/create": 3,
		"memory/write":  1,
		"memory/append": 1,
		"memory/read":   1,
		"memory/list":   1,
		"memory/delete": 1,
	}, m.ops)
	assert.Equal(t, map[string]int{
		"memory/write":  5,
		"memory/append": 1,
		"memory/read":   6,
	}, m.bytes)
	assert.Equal(t, 1, m.fails)
}

func TestInstrumentNilMetrics(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	root := resource.Instrument(memory.New().Root(), "memory", nil)
	f, err := root.Create(ctx, "f", resource.KindFile)
	require.NoError(t, err)
	assert.NoError(t, f.Write(ctx, []byte("x")))
}
