package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "itools", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerIsNoOpByDefault(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.operation")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
}

func TestRecordErrorIgnoresNil(t *testing.T) {
	require.NotPanics(t, func() {
		RecordError(context.Background(), nil)
		RecordError(context.Background(), errors.New("test error"))
	})
}

func TestInitWithExporter(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()

	cfg := DefaultConfig()
	cfg.Enabled = true
	shutdown, err := InitWithExporter(ctx, cfg, exporter)
	require.NoError(t, err)
	assert.True(t, IsEnabled())

	spanCtx, span := StartSpan(ctx, SpanSessionCommit, WithAttributes(SessionID("s1")))
	assert.Len(t, TraceID(spanCtx), 32)
	assert.Len(t, SpanID(spanCtx), 16)
	RecordError(spanCtx, errors.New("disk full"))
	span.End()

	require.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanSessionCommit, spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "disk full", spans[0].Status.Description)
	assert.Contains(t, spans[0].Attributes, SessionID("s1"))
}

func TestInitWithExporterValidates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing service name", func(c *Config) { c.ServiceName = "" }},
		{"sample rate above one", func(c *Config) { c.SampleRate = 1.5 }},
		{"negative sample rate", func(c *Config) { c.SampleRate = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Enabled = true
			tt.mutate(&cfg)
			_, err := InitWithExporter(context.Background(), cfg, tracetest.NewInMemoryExporter())
			assert.Error(t, err)
			assert.False(t, IsEnabled())
		})
	}
}

func TestParseProfileTypes(t *testing.T) {
	types, err := parseProfileTypes([]string{"cpu", "inuse_space", "mutex_count"})
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileMutexCount,
	}, types)

	_, err = parseProfileTypes([]string{"cpu", "heap"})
	assert.ErrorContains(t, err, `"heap"`)
}

func TestInitProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, IsProfilingEnabled())
	assert.NoError(t, shutdown())
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name string
		attr attribute.KeyValue
		key  string
		want any
	}{
		{"HandlerPath", HandlerPath("/a/doc.txt"), AttrPath, "/a/doc.txt"},
		{"Kind", Kind("folder"), AttrKind, "folder"},
		{"Format", Format("json"), AttrFormat, "json"},
		{"Bytes", Bytes(4096), AttrBytes, int64(4096)},
		{"SessionID", SessionID("abc"), AttrSessionID, "abc"},
		{"Pending", Pending(3), AttrPending, int64(3)},
		{"Saved", Saved(2), AttrSaved, int64(2)},
		{"StoreType", StoreType("badger"), AttrStoreType, "badger"},
		{"Bucket", Bucket("my-bucket"), AttrBucket, "my-bucket"},
		{"StorageKey", StorageKey("path/to/object"), AttrKey, "path/to/object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, string(tt.attr.Key))
			assert.Equal(t, tt.want, tt.attr.Value.AsInterface())
		})
	}
}

func TestStartHandlerSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartHandlerSpan(ctx, OpLoad, "/a/doc.txt")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartHandlerSpan(ctx, OpSave, "/a/doc.txt", Format("text"), Bytes(12))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartStoreSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartStoreSpan(ctx, SpanStoreRead, "s3", Bucket("b"), StorageKey("k"))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartSpanWithAttributes(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, SpanSessionCommit, WithAttributes(SessionID("s1"), Pending(0)))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}
