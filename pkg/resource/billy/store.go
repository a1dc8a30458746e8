// Package billy adapts a go-billy filesystem into a resource store.
//
// Any billy.Filesystem works: memfs for scratch trees, osfs for a local
// directory, or a chroot of either. Paths are always slash separated and
// relative to the filesystem root.
package billy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/nkhine/itools/pkg/resource"
)

const (
	dirMode  = 0755
	fileMode = 0644
)

// Store is a resource.Store backed by a billy.Filesystem.
type Store struct {
	mu     sync.RWMutex
	bfs    billy.Filesystem
	closed bool
}

var _ resource.Store = (*Store)(nil)

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem) *Store {
	return &Store{bfs: bfs}
}

// NewMemory creates a store on an empty in-memory filesystem.
func NewMemory() *Store {
	return New(memfs.New())
}

// NewLocal creates a store rooted at baseDir on the local filesystem.
func NewLocal(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, dirMode); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return New(osfs.New(baseDir)), nil
}

// Unwrap returns the underlying billy.Filesystem.
func (s *Store) Unwrap() billy.Filesystem { return s.bfs }

// Root returns the container for the filesystem root.
func (s *Store) Root() resource.Container {
	return &entry{s: s, p: "", kind: resource.KindFolder}
}

// Type returns "billy".
func (s *Store) Type() string { return "billy" }

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func mapErr(op, p string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %q: %w", op, p, resource.ErrNotFound)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s %q: %w", op, p, resource.ErrExists)
	default:
		return fmt.Errorf("%s %q: %w", op, p, err)
	}
}

type entry struct {
	s    *Store
	p    string
	kind resource.Kind
}

func (e *entry) name() string {
	if e.p == "" {
		return "/"
	}
	return e.p
}

func (e *entry) check(ctx context.Context, want resource.Kind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.s.closed {
		return resource.ErrClosed
	}
	if e.kind == want {
		return nil
	}
	if want == resource.KindFile {
		return resource.ErrIsContainer
	}
	return resource.ErrNotContainer
}

func (e *entry) Kind() resource.Kind { return e.kind }

func (e *entry) Read(ctx context.Context) ([]byte, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.check(ctx, resource.KindFile); err != nil {
		return nil, err
	}
	data, err := util.ReadFile(e.s.bfs, e.p)
	if err != nil {
		return nil, mapErr("read", e.p, err)
	}
	return data, nil
}

func (e *entry) Write(ctx context.Context, data []byte) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.check(ctx, resource.KindFile); err != nil {
		return err
	}
	if _, err := e.s.bfs.Stat(e.p); err != nil {
		return mapErr("write", e.p, err)
	}
	return mapErr("write", e.p, util.WriteFile(e.s.bfs, e.p, data, fileMode))
}

func (e *entry) Append(ctx context.Context, data []byte) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.check(ctx, resource.KindFile); err != nil {
		return err
	}
	f, err := e.s.bfs.OpenFile(e.p, os.O_WRONLY|os.O_APPEND, fileMode)
	if err != nil {
		return mapErr("append", e.p, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return mapErr("append", e.p, err)
	}
	return mapErr("append", e.p, f.Close())
}

// ModTime reports ok=false when the filesystem does not track times, which
// is the case for memfs directories.
func (e *entry) ModTime(ctx context.Context) (time.Time, bool, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	if e.s.closed {
		return time.Time{}, false, resource.ErrClosed
	}
	info, err := e.s.bfs.Stat(e.name())
	if err != nil {
		return time.Time{}, false, mapErr("stat", e.p, err)
	}
	mtime := info.ModTime()
	return mtime, !mtime.IsZero(), nil
}

func (e *entry) Child(ctx context.Context, name string) (resource.Resource, error) {
	if err := resource.ValidateName(name); err != nil {
		return nil, fmt.Errorf("child %q: %w", name, resource.ErrNotFound)
	}

	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.check(ctx, resource.KindFolder); err != nil {
		return nil, err
	}
	p := path.Join(e.p, name)
	info, err := e.s.bfs.Stat(p)
	if err != nil {
		return nil, mapErr("child", p, err)
	}
	kind := resource.KindFile
	if info.IsDir() {
		kind = resource.KindFolder
	}
	return &entry{s: e.s, p: p, kind: kind}, nil
}

func (e *entry) Create(ctx context.Context, name string, kind resource.Kind) (resource.Resource, error) {
	if err := resource.ValidateName(name); err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}

	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.check(ctx, resource.KindFolder); err != nil {
		return nil, err
	}

	p := path.Join(e.p, name)
	if _, err := e.s.bfs.Stat(p); err == nil {
		return nil, fmt.Errorf("create %q: %w", p, resource.ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, mapErr("create", p, err)
	}

	if kind == resource.KindFolder {
		// billy has no single-level Mkdir; the parent is known to exist.
		if err := e.s.bfs.MkdirAll(p, dirMode); err != nil {
			return nil, mapErr("create", p, err)
		}
	} else {
		f, err := e.s.bfs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
		if err != nil {
			return nil, mapErr("create", p, err)
		}
		if err := f.Close(); err != nil {
			return nil, mapErr("create", p, err)
		}
	}
	return &entry{s: e.s, p: p, kind: kind}, nil
}

func (e *entry) DeleteChild(ctx context.Context, name string) error {
	if err := resource.ValidateName(name); err != nil {
		return fmt.Errorf("delete %q: %w", name, resource.ErrNotFound)
	}

	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.check(ctx, resource.KindFolder); err != nil {
		return err
	}
	p := path.Join(e.p, name)
	if _, err := e.s.bfs.Stat(p); err != nil {
		return mapErr("delete", p, err)
	}
	return mapErr("delete", p, util.RemoveAll(e.s.bfs, p))
}

func (e *entry) List(ctx context.Context) ([]string, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.check(ctx, resource.KindFolder); err != nil {
		return nil, err
	}
	infos, err := e.s.bfs.ReadDir(e.name())
	if err != nil {
		return nil, mapErr("list", e.p, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	slices.Sort(names)
	return names, nil
}
