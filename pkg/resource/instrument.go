package resource

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/nkhine/itools/internal/telemetry"
)

// Metrics receives backing store observations. See pkg/metrics for the
// Prometheus implementation.
type Metrics interface {
	// ObserveOperation records one store call. op is one of read, write,
	// append, list, create, delete.
	ObserveOperation(store, op string, duration time.Duration, err error)

	// RecordBytes records payload bytes moved by a read, write or append.
	RecordBytes(store, op string, bytes int)
}

// Instrument returns a view of c that traces every operation and reports it
// to m. Children obtained through the view are instrumented too. A nil m
// disables metrics but keeps the spans.
func Instrument(c Container, storeType string, m Metrics) Container {
	return &instrumentedContainer{
		instrumentedResource: instrumentedResource{Resource: c, store: storeType, m: m},
		c:                    c,
	}
}

func instrument(r Resource, storeType string, m Metrics) Resource {
	if c, ok := r.(Container); ok && r.Kind() == KindFolder {
		return Instrument(c, storeType, m)
	}
	return &instrumentedResource{Resource: r, store: storeType, m: m}
}

type instrumentedResource struct {
	Resource
	store string
	m     Metrics
}

func (r *instrumentedResource) begin(ctx context.Context, span string) (context.Context, trace.Span, time.Time) {
	ctx, s := telemetry.StartStoreSpan(ctx, span, r.store)
	return ctx, s, time.Now()
}

func (r *instrumentedResource) end(ctx context.Context, span trace.Span, op string, start time.Time, bytes int, err error) {
	telemetry.RecordError(ctx, err)
	span.End()
	if r.m == nil {
		return
	}
	r.m.ObserveOperation(r.store, op, time.Since(start), err)
	if err == nil && bytes > 0 {
		r.m.RecordBytes(r.store, op, bytes)
	}
}

func (r *instrumentedResource) Read(ctx context.Context) (data []byte, err error) {
	ctx, span, start := r.begin(ctx, telemetry.SpanStoreRead)
	defer func() { r.end(ctx, span, "read", start, len(data), err) }()
	return r.Resource.Read(ctx)
}

func (r *instrumentedResource) Write(ctx context.Context, data []byte) (err error) {
	ctx, span, start := r.begin(ctx, telemetry.SpanStoreWrite)
	defer func() { r.end(ctx, span, "write", start, len(data), err) }()
	return r.Resource.Write(ctx, data)
}

func (r *instrumentedResource) Append(ctx context.Context, data []byte) (err error) {
	ctx, span, start := r.begin(ctx, telemetry.SpanStoreWrite)
	defer func() { r.end(ctx, span, "append", start, len(data), err) }()
	return r.Resource.Append(ctx, data)
}

// Tag forwards to the wrapped resource so that type dispatch still sees
// explicit tags.
func (r *instrumentedResource) Tag(ctx context.Context) (string, error) {
	if t, ok := r.Resource.(Tagged); ok {
		return t.Tag(ctx)
	}
	return "", nil
}

func (r *instrumentedResource) SetTag(ctx context.Context, tag string) error {
	if t, ok := r.Resource.(Taggable); ok {
		return t.SetTag(ctx, tag)
	}
	return errors.ErrUnsupported
}

type instrumentedContainer struct {
	instrumentedResource
	c Container
}

func (w *instrumentedContainer) Child(ctx context.Context, name string) (Resource, error) {
	r, err := w.c.Child(ctx, name)
	if err != nil {
		return nil, err
	}
	return instrument(r, w.store, w.m), nil
}

func (w *instrumentedContainer) Create(ctx context.Context, name string, kind Kind) (r Resource, err error) {
	ctx, span, start := w.begin(ctx, telemetry.SpanStoreWrite)
	defer func() { w.end(ctx, span, "create", start, 0, err) }()

	r, err = w.c.Create(ctx, name, kind)
	if err != nil {
		return nil, err
	}
	return instrument(r, w.store, w.m), nil
}

func (w *instrumentedContainer) DeleteChild(ctx context.Context, name string) (err error) {
	ctx, span, start := w.begin(ctx, telemetry.SpanStoreDelete)
	defer func() { w.end(ctx, span, "delete", start, 0, err) }()
	return w.c.DeleteChild(ctx, name)
}

func (w *instrumentedContainer) List(ctx context.Context) (names []string, err error) {
	ctx, span, start := w.begin(ctx, telemetry.SpanStoreList)
	defer func() { w.end(ctx, span, "list", start, 0, err) }()
	return w.c.List(ctx)
}

// InstrumentStore wraps the root of s with Instrument.
func InstrumentStore(s Store, m Metrics) Store {
	return &instrumentedStore{Store: s, root: Instrument(s.Root(), s.Type(), m)}
}

type instrumentedStore struct {
	Store
	root Container
}

func (s *instrumentedStore) Root() Container { return s.root }
