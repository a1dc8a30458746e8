// Package memory implements an in-process resource store.
//
// All state lives in a tree of nodes guarded by a single RWMutex. The store
// is mostly used by tests: its clock can be injected so that modification
// times are deterministic, and it can be told to withhold modification
// times altogether.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nkhine/itools/pkg/resource"
)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for modification times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithoutModTime makes every ModTime call report ok=false.
func WithoutModTime() Option {
	return func(s *Store) { s.noMTime = true }
}

// Store is an in-memory resource.Store.
type Store struct {
	mu      sync.RWMutex
	root    *node
	now     func() time.Time
	noMTime bool
	closed  bool
}

type node struct {
	kind     resource.Kind
	data     []byte
	tag      string
	mtime    time.Time
	children map[string]*node
	deleted  bool
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.root = s.newNode(resource.KindFolder)
	return s
}

func (s *Store) newNode(kind resource.Kind) *node {
	n := &node{kind: kind, mtime: s.now()}
	if kind == resource.KindFolder {
		n.children = make(map[string]*node)
	}
	return n
}

// Root returns the top-level container.
func (s *Store) Root() resource.Container {
	return &entry{s: s, n: s.root}
}

// Type returns "memory".
func (s *Store) Type() string { return "memory" }

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// entry is a handle on one node. Handles on deleted nodes fail with
// resource.ErrNotFound.
type entry struct {
	s *Store
	n *node
}

var (
	_ resource.Container = (*entry)(nil)
	_ resource.Tagged    = (*entry)(nil)
	_ resource.Taggable  = (*entry)(nil)
)

func (e *entry) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.s.closed {
		return resource.ErrClosed
	}
	if e.n.deleted {
		return resource.ErrNotFound
	}
	return nil
}

func (e *entry) checkFile(ctx context.Context) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	if e.n.kind != resource.KindFile {
		return resource.ErrIsContainer
	}
	return nil
}

func (e *entry) checkFolder(ctx context.Context) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	if e.n.kind != resource.KindFolder {
		return resource.ErrNotContainer
	}
	return nil
}

func (e *entry) Kind() resource.Kind { return e.n.kind }

func (e *entry) Read(ctx context.Context) ([]byte, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.checkFile(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(e.n.data), nil
}

func (e *entry) Write(ctx context.Context, data []byte) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.checkFile(ctx); err != nil {
		return err
	}
	e.n.data = slices.Clone(data)
	e.n.mtime = e.s.now()
	return nil
}

func (e *entry) Append(ctx context.Context, data []byte) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.checkFile(ctx); err != nil {
		return err
	}
	e.n.data = append(e.n.data, data...)
	e.n.mtime = e.s.now()
	return nil
}

func (e *entry) ModTime(ctx context.Context) (time.Time, bool, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.check(ctx); err != nil {
		return time.Time{}, false, err
	}
	if e.s.noMTime {
		return time.Time{}, false, nil
	}
	return e.n.mtime, true, nil
}

func (e *entry) Tag(ctx context.Context) (string, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.check(ctx); err != nil {
		return "", err
	}
	return e.n.tag, nil
}

func (e *entry) SetTag(ctx context.Context, tag string) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.check(ctx); err != nil {
		return err
	}
	e.n.tag = tag
	return nil
}

func (e *entry) Child(ctx context.Context, name string) (resource.Resource, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.checkFolder(ctx); err != nil {
		return nil, err
	}
	c, ok := e.n.children[name]
	if !ok {
		return nil, fmt.Errorf("child %q: %w", name, resource.ErrNotFound)
	}
	return &entry{s: e.s, n: c}, nil
}

func (e *entry) Create(ctx context.Context, name string, kind resource.Kind) (resource.Resource, error) {
	if err := resource.ValidateName(name); err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}

	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.checkFolder(ctx); err != nil {
		return nil, err
	}
	if _, ok := e.n.children[name]; ok {
		return nil, fmt.Errorf("create %q: %w", name, resource.ErrExists)
	}

	c := e.s.newNode(kind)
	e.n.children[name] = c
	e.n.mtime = e.s.now()
	return &entry{s: e.s, n: c}, nil
}

func (e *entry) DeleteChild(ctx context.Context, name string) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.checkFolder(ctx); err != nil {
		return err
	}
	c, ok := e.n.children[name]
	if !ok {
		return fmt.Errorf("delete %q: %w", name, resource.ErrNotFound)
	}

	delete(e.n.children, name)
	markDeleted(c)
	e.n.mtime = e.s.now()
	return nil
}

func markDeleted(n *node) {
	n.deleted = true
	for _, c := range n.children {
		markDeleted(c)
	}
}

func (e *entry) List(ctx context.Context) ([]string, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.checkFolder(ctx); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(e.n.children))
	for name := range e.n.children {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
