// Package watch keeps a handler tree in step with the directory it mirrors.
//
// A Watcher subscribes to filesystem notifications for every directory under
// a base path, coalesces bursts of events, and refreshes the nodes on the
// affected paths: outdated folders relist their children and outdated files
// reload their state. Nodes holding local edits are never reloaded, so a
// pending change always wins over an external one until it is committed.
//
// Refreshes take the session commit lock, so they do not interleave with
// Commit. Callers must not otherwise use the tree from another goroutine while
// Run is active.
package watch

import (
	"context"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/internal/telemetry"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/handler/errors"
)

// DefaultDebounce is how long a path must stay quiet before it is refreshed.
const DefaultDebounce = 100 * time.Millisecond

// Event reports the outcome of refreshing one path.
type Event struct {
	// Path is slash-separated and relative to the watched directory.
	Path string

	// Op is the union of the filesystem operations seen for Path.
	Op fsnotify.Op

	// Node is the node Path resolves to after the refresh, or nil when the
	// path no longer exists.
	Node handler.Node

	// Err is set when the refresh failed.
	Err error
}

// Filter reports whether a path (relative, slash-separated) should be
// watched.
type Filter func(path string) bool

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a batch of events is applied.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithNotify registers a callback invoked once per refreshed path.
func WithNotify(fn func(Event)) Option {
	return func(w *Watcher) { w.notify = fn }
}

// WithFilter replaces the default filter, which skips dot-files.
func WithFilter(f Filter) Option {
	return func(w *Watcher) { w.filter = f }
}

// Watcher refreshes a handler tree from filesystem notifications.
type Watcher struct {
	root     *handler.Folder
	dir      string
	debounce time.Duration
	notify   func(Event)
	filter   Filter

	fsw       *fsnotify.Watcher
	closeOnce sync.Once
}

// New starts watching dir, the directory backing root. Every existing
// subdirectory is registered; directories created later are picked up as
// their create events arrive.
func New(root *handler.Folder, dir string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		dir:      abs,
		debounce: DefaultDebounce,
		filter:   skipHidden,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Dir returns the absolute path being watched.
func (w *Watcher) Dir() string { return w.dir }

// Close stops the underlying notifier. Run returns once its channels close.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() { err = w.fsw.Close() })
	return err
}

// Run applies events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]fsnotify.Op)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	logger.InfoCtx(ctx, "watching directory", logger.KeyPath, w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, ok := w.rel(ev.Name)
			if !ok {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						logger.WarnCtx(ctx, "cannot watch new directory",
							logger.KeyPath, rel, logger.KeyError, err)
					}
				}
			}
			pending[rel] |= ev.Op

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.WarnCtx(ctx, "watch error", logger.KeyError, err)

		case <-fire:
			timer, fire = nil, nil
			batch := pending
			pending = make(map[string]fsnotify.Op)
			w.apply(ctx, batch)
		}
	}
}

// apply refreshes a batch of paths under the session lock.
func (w *Watcher) apply(ctx context.Context, batch map[string]fsnotify.Op) {
	if sess := w.root.Session(); sess != nil {
		if err := sess.Lock(ctx); err != nil {
			return
		}
		defer sess.Release()
	}

	for _, path := range slices.Sorted(maps.Keys(batch)) {
		op := batch[path]
		spanCtx, span := telemetry.StartSpan(ctx, telemetry.SpanWatchEvent,
			telemetry.WithAttributes(telemetry.HandlerPath(path)))

		n, err := w.Refresh(spanCtx, path)
		telemetry.RecordError(spanCtx, err)
		span.End()

		if err != nil {
			logger.WarnCtx(ctx, "refresh failed",
				logger.KeyPath, path, logger.KeyEvent, op.String(), logger.KeyError, err)
		} else {
			logger.DebugCtx(ctx, "refreshed",
				logger.KeyPath, path, logger.KeyEvent, op.String())
		}
		if w.notify != nil {
			w.notify(Event{Path: path, Op: op, Node: n, Err: err})
		}
	}
}

// Refresh walks path from the root, reloading every outdated node along the
// way that holds no local edits. It returns the node path resolves to, or nil
// if it no longer exists.
//
// Refresh does not take the session lock; Run does so around each batch.
func (w *Watcher) Refresh(ctx context.Context, path string) (handler.Node, error) {
	var cur handler.Node = w.root
	if err := reload(ctx, cur); err != nil {
		return nil, err
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			continue
		}
		dir, ok := cur.(*handler.Folder)
		if !ok {
			return nil, nil
		}
		next, err := dir.GetHandler(ctx, seg)
		if errors.IsNotFoundError(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if err := reload(ctx, next); err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func reload(ctx context.Context, n handler.Node) error {
	if !n.IsOutdated(ctx) || n.HasChanged(ctx) || n.Session().Contains(n) {
		return nil
	}
	return n.Load(ctx)
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(p); !ok && rel != "" {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// rel maps an absolute event path onto the tree. The second result is false
// for paths outside the watched directory and for filtered paths.
func (w *Watcher) rel(name string) (string, bool) {
	r, err := filepath.Rel(w.dir, name)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	if r == "." {
		return "", true
	}
	r = filepath.ToSlash(r)
	if w.filter != nil && !w.filter(r) {
		return r, false
	}
	return r, true
}

// skipHidden ignores any path with a segment starting with a dot, which
// includes the temporary files written by the fs store.
func skipHidden(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ".") {
			return false
		}
	}
	return true
}
