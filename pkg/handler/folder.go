package handler

import (
	"context"
	stderrors "errors"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/internal/telemetry"
	"github.com/nkhine/itools/pkg/handler/errors"
	"github.com/nkhine/itools/pkg/resource"
)

// Hooks customise a folder's behaviour. Every field is optional.
type Hooks struct {
	// OnSet runs after a child has been staged in the added overlay.
	OnSet func(ctx context.Context, f *Folder, name string, n Node) error

	// OnDel runs before a child is staged for removal. Returning an error
	// aborts the removal.
	OnDel func(ctx context.Context, f *Folder, name string) error

	// Virtual resolves names that are neither staged nor stored. It returns
	// a nil Node when name is unknown. Virtual nodes are never cached or
	// saved.
	Virtual func(ctx context.Context, f *Folder, name string) (Node, error)
}

// FolderOption configures a Folder.
type FolderOption func(*Folder)

// WithHooks installs h on the folder.
func WithHooks(h Hooks) FolderOption {
	return func(f *Folder) { f.hooks = h }
}

// WithSkeleton sets the children a fresh folder starts with. fn is called
// once per fresh folder and must return new, detached nodes.
func WithSkeleton(fn func() map[string]Node) FolderOption {
	return func(f *Folder) { f.skeleton = fn }
}

// Folder is a Node holding named children.
//
// cache maps every stored child name to its node, or to nil until the name
// is first resolved. added holds staged new children, removed holds stored
// names staged for deletion. A name is never in both added and removed.
type Folder struct {
	base
	cache    map[string]Node
	added    map[string]Node
	removed  map[string]struct{}
	hooks    Hooks
	skeleton func() map[string]Node
}

var _ Node = (*Folder)(nil)

// NewFolder creates a detached folder holding only its skeleton.
func NewFolder(opts ...FolderOption) *Folder {
	f := newFolder(opts)
	if f.skeleton != nil {
		for name, n := range f.skeleton() {
			f.added[name] = n
			n.core().adopt(f, name)
		}
	}
	return f
}

func newFolder(opts []FolderOption) *Folder {
	f := &Folder{
		cache:   make(map[string]Node),
		added:   make(map[string]Node),
		removed: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// newBoundFolder creates a folder whose children are listed from c on
// first access.
func newBoundFolder(c resource.Resource, opts []FolderOption) *Folder {
	f := newFolder(opts)
	f.res = c
	return f
}

// Kind returns resource.KindFolder.
func (f *Folder) Kind() resource.Kind { return resource.KindFolder }

// Root returns the topmost reachable ancestor.
func (f *Folder) Root() *Folder {
	r := f
	for p := r.Parent(); p != nil; p = r.Parent() {
		r = p
	}
	return r
}

func (f *Folder) container() (resource.Container, error) {
	c, ok := f.res.(resource.Container)
	if !ok || f.res.Kind() != resource.KindFolder {
		return nil, errors.NewResourceError(f.Path(), "open folder", resource.ErrNotContainer)
	}
	return c, nil
}

func (f *Folder) registry() *Registry {
	if f.sess != nil {
		return f.sess.registry
	}
	return DefaultRegistry()
}

func (f *Folder) ensureLoaded(ctx context.Context) error {
	if f.needsLoad() {
		return f.Load(ctx)
	}
	return nil
}

// Load lists the stored children. Staged overlays survive a reload, and
// resolved children whose names are still stored keep their cached nodes.
func (f *Folder) Load(ctx context.Context) (err error) {
	if f.res == nil {
		return nil
	}

	path := f.Path()
	ctx, span := telemetry.StartHandlerSpan(ctx, telemetry.OpLoad, path)
	defer span.End()

	start := time.Now()
	var count int
	defer func() {
		f.sess.observeLoad(resource.KindFolder, 0, time.Since(start), err)
		telemetry.RecordError(ctx, err)
	}()

	c, err := f.container()
	if err != nil {
		return err
	}
	names, err := c.List(ctx)
	if err != nil {
		return errors.NewResourceError(path, "list", err)
	}
	count = len(names)

	cache := make(map[string]Node, len(names))
	for _, name := range names {
		n := f.cache[name]
		if n != nil {
			r, err := c.Child(ctx, name)
			if err != nil {
				n = nil
			} else {
				n.core().res = r
			}
		}
		cache[name] = n
	}
	for name, n := range f.cache {
		if _, ok := cache[name]; !ok && n != nil {
			n.forget()
		}
	}
	f.cache = cache
	f.markSynced(ctx)

	logger.DebugCtx(ctx, "folder loaded", logger.KeyPath, path, logger.KeyCached, count)
	return nil
}

// MarkChanged records a local edit of the folder itself.
func (f *Folder) MarkChanged(ctx context.Context) error {
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}
	f.touch(f)
	return nil
}

// Names returns the visible child names in lexical order: stored names that
// are not removed, plus staged additions. Virtual children are not listed.
func (f *Folder) Names(ctx context.Context) ([]string, error) {
	if err := f.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return f.names(), nil
}

func (f *Folder) names() []string {
	seen := make(map[string]struct{}, len(f.cache)+len(f.added))
	for name := range f.cache {
		if _, gone := f.removed[name]; !gone {
			seen[name] = struct{}{}
		}
	}
	for name := range f.added {
		seen[name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// exists reports whether name is a visible, non-virtual child.
func (f *Folder) exists(name string) bool {
	if _, ok := f.added[name]; ok {
		return true
	}
	if _, gone := f.removed[name]; gone {
		return false
	}
	_, ok := f.cache[name]
	return ok
}

// Staged returns the names in the added and removed overlays.
func (f *Folder) Staged() (added, removed []string) {
	return slices.Sorted(maps.Keys(f.added)), slices.Sorted(maps.Keys(f.removed))
}

// Has reports whether path resolves to a node.
func (f *Folder) Has(ctx context.Context, path string) (bool, error) {
	_, err := f.GetHandler(ctx, path)
	if errors.IsNotFoundError(err) {
		return false, nil
	}
	return err == nil, err
}

// GetHandler resolves a slash-separated path relative to f.
//
// An empty path yields f. A leading "/" restarts at the root of the tree.
// "." and empty segments are skipped and ".." climbs to the parent, failing
// with a StructuralError at the root.
func (f *Folder) GetHandler(ctx context.Context, path string) (Node, error) {
	var cur Node = f
	if strings.HasPrefix(path, "/") {
		cur = f.Root()
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			continue
		}
		dir, ok := cur.(*Folder)
		if !ok {
			return nil, errors.NewNotFoundError(cur.Path(), seg)
		}
		next, err := dir.child(ctx, seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// GetFolder resolves path and requires the result to be a folder.
func (f *Folder) GetFolder(ctx context.Context, path string) (*Folder, error) {
	n, err := f.GetHandler(ctx, path)
	if err != nil {
		return nil, err
	}
	dir, ok := n.(*Folder)
	if !ok {
		return nil, errors.NewInvalidArgumentError(n.Path(), "not a folder")
	}
	return dir, nil
}

// GetFile resolves path and requires the result to be a file.
func (f *Folder) GetFile(ctx context.Context, path string) (*File, error) {
	n, err := f.GetHandler(ctx, path)
	if err != nil {
		return nil, err
	}
	file, ok := n.(*File)
	if !ok {
		return nil, errors.NewInvalidArgumentError(n.Path(), "not a file")
	}
	return file, nil
}

// child resolves one path segment.
func (f *Folder) child(ctx context.Context, name string) (Node, error) {
	if name == ".." {
		p := f.Parent()
		if p == nil {
			return nil, errors.NewStructuralError(f.Path(), "no parent above root")
		}
		return p, nil
	}

	if err := f.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	if n, ok := f.added[name]; ok {
		return n, nil
	}

	if _, gone := f.removed[name]; !gone {
		if n, stored := f.cache[name]; stored {
			return f.resolveStored(ctx, name, n)
		}
	}

	return f.virtual(ctx, name)
}

func (f *Folder) resolveStored(ctx context.Context, name string, n Node) (Node, error) {
	if n == nil {
		f.sess.recordLookup(false)
		n, err := f.instantiate(ctx, name)
		if err != nil {
			return nil, err
		}
		f.cache[name] = n
		return n, nil
	}

	f.sess.recordLookup(true)
	if n.IsOutdated(ctx) && !pending(ctx, n) {
		if err := n.Load(ctx); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// instantiate builds the node for a stored child using the registry.
func (f *Folder) instantiate(ctx context.Context, name string) (Node, error) {
	c, err := f.container()
	if err != nil {
		return nil, err
	}
	r, err := c.Child(ctx, name)
	if err != nil {
		if stderrors.Is(err, resource.ErrNotFound) {
			return nil, errors.NewNotFoundError(f.Path(), name)
		}
		return nil, errors.NewResourceError(f.Path(), "open child", err)
	}

	sig := Signature{Name: name, Kind: r.Kind()}
	if t, ok := r.(resource.Tagged); ok {
		if tag, err := t.Tag(ctx); err == nil {
			sig.Tag = tag
		}
	}

	n := f.registry().Resolve(sig)(sig)
	if n == nil || n.Kind() != r.Kind() {
		logger.WarnCtx(ctx, "factory kind mismatch, using built-in handler",
			logger.KeyPath, f.Path(), logger.KeyName, name, logger.KeyKind, r.Kind().String())
		n = defaultNode(r.Kind())
	}

	b := n.core()
	b.res = r
	b.stamp = time.Time{}
	b.adopt(f, name)
	n.attach(f.sess)
	return n, nil
}

func (f *Folder) virtual(ctx context.Context, name string) (Node, error) {
	if f.hooks.Virtual != nil {
		n, err := f.hooks.Virtual(ctx, f, name)
		if err != nil {
			return nil, err
		}
		if n != nil {
			n.core().adopt(f, name)
			n.attach(f.sess)
			return n, nil
		}
	}
	return nil, errors.NewNotFoundError(f.Path(), name)
}

func (f *Folder) attach(s *Session) {
	if s == nil {
		return
	}
	f.sess = s
	for _, n := range f.added {
		n.attach(s)
	}
	for _, n := range f.cache {
		if n != nil {
			n.attach(s)
		}
	}
}

// forget drops f and every resolved descendant from the session.
func (f *Folder) forget() {
	f.sess.Remove(f)
	for _, n := range f.added {
		n.forget()
	}
	for _, n := range f.cache {
		if n != nil {
			n.forget()
		}
	}
}
