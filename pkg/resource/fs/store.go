// Package fs provides a local filesystem resource store.
//
// Folders map to directories and files to regular files below a base
// directory. Modification times come from the filesystem. Writes go to a
// temporary file that is then renamed over the target, so readers never
// observe a partial write.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/nkhine/itools/pkg/resource"
)

// Config holds configuration for the filesystem store.
type Config struct {
	// BasePath is the directory that backs the root container.
	BasePath string

	// CreateDir creates the base directory if it doesn't exist.
	// Default: true
	CreateDir bool

	// DirMode is the permission mode for created directories.
	// Default: 0755
	DirMode os.FileMode

	// FileMode is the permission mode for created files.
	// Default: 0644
	FileMode os.FileMode
}

// DefaultConfig returns the default configuration.
func DefaultConfig(basePath string) Config {
	return Config{
		BasePath:  basePath,
		CreateDir: true,
		DirMode:   0755,
		FileMode:  0644,
	}
}

// Store is a filesystem-backed resource.Store.
type Store struct {
	mu       sync.RWMutex
	basePath string
	dirMode  os.FileMode
	fileMode os.FileMode
	closed   bool
}

var _ resource.Store = (*Store)(nil)

// New creates a new filesystem store with the given configuration.
func New(cfg Config) (*Store, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("base path is required")
	}

	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}

	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("base path is not a directory")
	}

	return &Store{
		basePath: cfg.BasePath,
		dirMode:  cfg.DirMode,
		fileMode: cfg.FileMode,
	}, nil
}

// NewWithPath creates a new filesystem store with default configuration.
func NewWithPath(basePath string) (*Store, error) {
	return New(DefaultConfig(basePath))
}

// Root returns the container for the base directory.
func (s *Store) Root() resource.Container {
	return &entry{s: s, rel: "", kind: resource.KindFolder}
}

// Type returns "fs".
func (s *Store) Type() string { return "fs" }

// Close marks the store closed. Files are not held open between calls.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// BasePath returns the directory backing the root container.
func (s *Store) BasePath() string { return s.basePath }

func (s *Store) abs(rel string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(rel))
}

// mapErr translates filesystem errors into resource sentinels.
func mapErr(op, rel string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %q: %w", op, rel, resource.ErrNotFound)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s %q: %w", op, rel, resource.ErrExists)
	default:
		return fmt.Errorf("%s %q: %w", op, rel, err)
	}
}

// entry is a handle on one path below the base directory.
type entry struct {
	s    *Store
	rel  string
	kind resource.Kind
}

func (e *entry) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.s.closed {
		return resource.ErrClosed
	}
	return nil
}

func (e *entry) checkFile(ctx context.Context) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	if e.kind != resource.KindFile {
		return resource.ErrIsContainer
	}
	return nil
}

func (e *entry) checkFolder(ctx context.Context) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	if e.kind != resource.KindFolder {
		return resource.ErrNotContainer
	}
	return nil
}

func (e *entry) Kind() resource.Kind { return e.kind }

func (e *entry) Read(ctx context.Context) ([]byte, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.checkFile(ctx); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(e.s.abs(e.rel))
	if err != nil {
		return nil, mapErr("read", e.rel, err)
	}
	return data, nil
}

func (e *entry) Write(ctx context.Context, data []byte) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.checkFile(ctx); err != nil {
		return err
	}

	p := e.s.abs(e.rel)
	if _, err := os.Stat(p); err != nil {
		return mapErr("write", e.rel, err)
	}

	// Write to a temporary file first, then rename for atomicity
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return mapErr("write", e.rel, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return mapErr("write", e.rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return mapErr("write", e.rel, err)
	}
	if err := os.Chmod(tmpPath, e.s.fileMode); err != nil {
		os.Remove(tmpPath)
		return mapErr("write", e.rel, err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return mapErr("write", e.rel, err)
	}
	return nil
}

func (e *entry) Append(ctx context.Context, data []byte) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.checkFile(ctx); err != nil {
		return err
	}
	f, err := os.OpenFile(e.s.abs(e.rel), os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return mapErr("append", e.rel, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return mapErr("append", e.rel, err)
	}
	return mapErr("append", e.rel, f.Close())
}

func (e *entry) ModTime(ctx context.Context) (time.Time, bool, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.check(ctx); err != nil {
		return time.Time{}, false, err
	}
	info, err := os.Stat(e.s.abs(e.rel))
	if err != nil {
		return time.Time{}, false, mapErr("stat", e.rel, err)
	}
	return info.ModTime(), true, nil
}

func (e *entry) child(name string) string {
	return path.Join(e.rel, name)
}

func (e *entry) Child(ctx context.Context, name string) (resource.Resource, error) {
	if err := resource.ValidateName(name); err != nil {
		return nil, fmt.Errorf("child %q: %w", name, resource.ErrNotFound)
	}

	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.checkFolder(ctx); err != nil {
		return nil, err
	}
	rel := e.child(name)
	info, err := os.Stat(e.s.abs(rel))
	if err != nil {
		return nil, mapErr("child", rel, err)
	}
	kind := resource.KindFile
	if info.IsDir() {
		kind = resource.KindFolder
	}
	return &entry{s: e.s, rel: rel, kind: kind}, nil
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

	rel := e.child(name)
	p := e.s.abs(rel)
	if kind == resource.KindFolder {
		if err := os.Mkdir(p, e.s.dirMode); err != nil {
			return nil, mapErr("create", rel, err)
		}
	} else {
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, e.s.fileMode)
		if err != nil {
			return nil, mapErr("create", rel, err)
		}
		if err := f.Close(); err != nil {
			return nil, mapErr("create", rel, err)
		}
	}
	return &entry{s: e.s, rel: rel, kind: kind}, nil
}

func (e *entry) DeleteChild(ctx context.Context, name string) error {
	if err := resource.ValidateName(name); err != nil {
		return fmt.Errorf("delete %q: %w", name, resource.ErrNotFound)
	}

	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if err := e.checkFolder(ctx); err != nil {
		return err
	}
	rel := e.child(name)
	p := e.s.abs(rel)
	if _, err := os.Lstat(p); err != nil {
		return mapErr("delete", rel, err)
	}
	return mapErr("delete", rel, os.RemoveAll(p))
}

func (e *entry) List(ctx context.Context) ([]string, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	if err := e.checkFolder(ctx); err != nil {
		return nil, err
	}
	// os.ReadDir returns entries sorted by filename.
	entries, err := os.ReadDir(e.s.abs(e.rel))
	if err != nil {
		return nil, mapErr("list", e.rel, err)
	}
	names := make([]string, 0, len(entries))
	for _, de := range entries {
		names = append(names, de.Name())
	}
	return names, nil
}
