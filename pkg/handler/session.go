package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/internal/telemetry"
	"github.com/nkhine/itools/pkg/handler/errors"
	"github.com/nkhine/itools/pkg/resource"
)

// Session is a unit of work over one or more handler trees.
//
// It tracks the nodes holding edits that are not yet flushed, in the order
// they were first edited, and guards commits with a single lock. The lock
// is coarse: it serializes whole commits and saves, not individual nodes,
// and provides no isolation for readers.
//
// Nodes are not safe for concurrent use; the session lock only keeps two
// commits from interleaving their store writes.
type Session struct {
	id       string
	registry *Registry
	now      func() time.Time
	metrics  Metrics

	mu      sync.Mutex
	order   []Node
	pending map[Node]struct{}

	sem chan struct{}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRegistry sets the registry used to build nodes for stored children.
// Defaults to DefaultRegistry().
func WithRegistry(r *Registry) SessionOption {
	return func(s *Session) { s.registry = r }
}

// WithClock sets the time source for edit timestamps. Defaults to time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithMetrics sets the metrics sink. nil disables metrics.
func WithMetrics(m Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithID overrides the generated session identifier.
func WithID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

// NewSession creates an empty session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.NewString(),
		registry: DefaultRegistry(),
		now:      time.Now,
		pending:  make(map[Node]struct{}),
		sem:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier used in logs and traces.
func (s *Session) ID() string { return s.id }

// Registry returns the session's type registry.
func (s *Session) Registry() *Registry { return s.registry }

// OpenFolder returns a root folder bound to c. Its children are listed on
// first access.
func (s *Session) OpenFolder(c resource.Container, opts ...FolderOption) *Folder {
	f := newBoundFolder(c, opts)
	f.sess = s
	return f
}

// OpenFile returns a root file bound to r and parsed with format on first
// access.
func (s *Session) OpenFile(r resource.Resource, format Format) *File {
	f := newBoundFile(format, r)
	f.sess = s
	return f
}

// Open returns a root node for r, choosing its type through the registry
// as if r were a child called name.
func (s *Session) Open(ctx context.Context, r resource.Resource, name string) Node {
	sig := Signature{Name: name, Kind: r.Kind()}
	if t, ok := r.(resource.Tagged); ok {
		if tag, err := t.Tag(ctx); err == nil {
			sig.Tag = tag
		}
	}
	n := s.registry.Resolve(sig)(sig)
	if n == nil || n.Kind() != r.Kind() {
		n = defaultNode(r.Kind())
	}
	n.core().res = r
	n.attach(s)
	return n
}

// Add registers n as having pending changes. Adding a node twice has no
// effect.
func (s *Session) Add(n Node) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if _, ok := s.pending[n]; !ok {
		s.pending[n] = struct{}{}
		s.order = append(s.order, n)
	}
	size := len(s.order)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetPending(size)
	}
}

// Remove deregisters n.
func (s *Session) Remove(n Node) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if _, ok := s.pending[n]; ok {
		delete(s.pending, n)
		for i, o := range s.order {
			if o == n {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	size := len(s.order)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetPending(size)
	}
}

// Contains reports whether n is registered.
func (s *Session) Contains(n Node) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[n]
	return ok
}

// Pending returns the registered nodes in registration order.
func (s *Session) Pending() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Node, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of registered nodes.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Lock takes the commit lock, waiting until it is free or ctx is done.
func (s *Session) Lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryLock takes the commit lock or fails at once with a BusyError.
func (s *Session) TryLock() error {
	select {
	case s.sem <- struct{}{}:
		return nil
	default:
		return errors.NewBusyError(s.id)
	}
}

// Release frees the commit lock taken by Lock or TryLock.
func (s *Session) Release() {
	select {
	case <-s.sem:
	default:
		panic("handler: Release of unlocked session")
	}
}

// Commit saves every pending node in registration order while holding the
// commit lock. Nodes flushed as part of an earlier node's save are skipped.
//
// Commit is not atomic: on error the nodes saved so far stay saved and the
// rest stay pending, so a later Commit resumes where this one stopped.
func (s *Session) Commit(ctx context.Context) (err error) {
	if err := s.Lock(ctx); err != nil {
		return err
	}
	defer s.Release()

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSessionCommit,
		telemetry.WithAttributes(telemetry.SessionID(s.id)))
	defer span.End()
	lc := logger.NewLogContext(s.id).
		WithOperation("commit").
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	snapshot := s.Pending()
	saved := 0
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveCommit(saved, time.Since(lc.StartTime), err)
		}
		telemetry.RecordError(ctx, err)
	}()

	logger.DebugCtx(ctx, "commit started", logger.KeyPending, len(snapshot))

	for _, n := range snapshot {
		if !s.Contains(n) {
			continue
		}
		if n.Resource() == nil {
			s.Remove(n)
			continue
		}
		if err := n.save(ctx); err != nil {
			logger.ErrorCtx(ctx, "commit failed",
				logger.KeyPath, n.Path(),
				logger.KeySaved, saved,
				logger.KeyError, err)
			return err
		}
		saved++
	}

	logger.InfoCtx(ctx, "commit finished",
		logger.KeySaved, saved,
		logger.KeyDurationMs, lc.DurationMs())
	return nil
}

func (s *Session) observeLoad(kind resource.Kind, bytes int, d time.Duration, err error) {
	if s != nil && s.metrics != nil {
		s.metrics.ObserveLoad(kind, bytes, d, err)
	}
}

func (s *Session) observeSave(kind resource.Kind, bytes int, d time.Duration, err error) {
	if s != nil && s.metrics != nil {
		s.metrics.ObserveSave(kind, bytes, d, err)
	}
}

func (s *Session) recordLookup(hit bool) {
	if s != nil && s.metrics != nil {
		s.metrics.RecordLookup(hit)
	}
}
