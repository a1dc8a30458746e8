package handler

import (
	"context"
	"strings"
	"time"
	"weak"

	"github.com/nkhine/itools/pkg/resource"
)

// Node is a File or a Folder.
type Node interface {
	// Name is the node's name within its parent ("" for a root).
	Name() string

	// Path is the slash-separated path from the root ("/" for a root).
	Path() string

	// Parent returns the containing folder, or nil for a root or a
	// detached node.
	Parent() *Folder

	// Kind reports whether the node is a file or a folder.
	Kind() resource.Kind

	// Resource returns the bound backing resource, or nil for a node that
	// has never been saved.
	Resource() resource.Resource

	// Session returns the session the node belongs to, or nil.
	Session() *Session

	// Load (re)reads the node's state from its resource.
	Load(ctx context.Context) error

	// Save flushes pending changes to the resource under the session lock.
	Save(ctx context.Context) error

	// IsOutdated reports whether the resource changed after the last load.
	IsOutdated(ctx context.Context) bool

	// HasChanged reports whether the node holds edits newer than the
	// resource.
	HasChanged(ctx context.Context) bool

	// MarkChanged records a local edit and registers the node with its
	// session.
	MarkChanged(ctx context.Context) error

	// Clone deep-copies the node's state into a new detached node with no
	// resource.
	Clone(ctx context.Context) (Node, error)

	// LoadFrom replaces the node's state with the content of r and marks
	// the node changed. The node stays bound to its own resource.
	LoadFrom(ctx context.Context, r resource.Resource) error

	// SaveTo writes the node's state into r without rebinding the node.
	SaveTo(ctx context.Context, r resource.Resource) error

	core() *base
	save(ctx context.Context) error
	saveTo(ctx context.Context, r resource.Resource) error
	attach(s *Session)
	forget()
}

// base carries the bookkeeping shared by Files and Folders.
//
// stamp is zero until the first load. After a load or save it holds the
// resource's modification time; after a local edit it holds the time of the
// edit. Comparing the two tells outdated (resource newer) from changed
// (stamp newer).
type base struct {
	res    resource.Resource
	stamp  time.Time
	parent weak.Pointer[Folder]
	name   string
	sess   *Session
}

func (b *base) core() *base { return b }

func (b *base) Name() string { return b.name }

func (b *base) Parent() *Folder { return b.parent.Value() }

func (b *base) Resource() resource.Resource { return b.res }

func (b *base) Session() *Session { return b.sess }

func (b *base) Path() string {
	var parts []string
	for n := b; ; {
		p := n.parent.Value()
		if p == nil {
			break
		}
		parts = append(parts, n.name)
		n = &p.base
	}
	if len(parts) == 0 {
		return "/"
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(parts[i])
	}
	return sb.String()
}

func (b *base) now() time.Time {
	if b.sess != nil {
		return b.sess.now()
	}
	return time.Now()
}

// needsLoad reports whether state must be read before use.
func (b *base) needsLoad() bool {
	return b.res != nil && b.stamp.IsZero()
}

func (b *base) modTime(ctx context.Context) (time.Time, bool) {
	m, ok, err := b.res.ModTime(ctx)
	if err != nil {
		return time.Time{}, false
	}
	return m, ok
}

func (b *base) IsOutdated(ctx context.Context) bool {
	if b.res == nil || b.stamp.IsZero() {
		return false
	}
	m, ok := b.modTime(ctx)
	if !ok {
		return true
	}
	return m.After(b.stamp)
}

func (b *base) HasChanged(ctx context.Context) bool {
	if b.res == nil || b.stamp.IsZero() {
		return false
	}
	m, ok := b.modTime(ctx)
	if !ok {
		return false
	}
	return b.stamp.After(m)
}

// markSynced records that state and resource agree as of now.
func (b *base) markSynced(ctx context.Context) {
	if m, ok := b.modTime(ctx); ok {
		b.stamp = m
		return
	}
	b.stamp = b.now()
}

// touch records a local edit. Nodes without a resource are flushed through
// their parent's added overlay and are not registered with the session.
func (b *base) touch(self Node) {
	b.stamp = b.now()
	if b.res != nil && b.sess != nil {
		b.sess.Add(self)
	}
}

func (b *base) adopt(parent *Folder, name string) {
	b.parent = weak.Make(parent)
	b.name = name
}

func (b *base) detach() {
	b.parent = weak.Pointer[Folder]{}
	b.name = ""
}

// pending reports whether n has edits not yet flushed.
func pending(ctx context.Context, n Node) bool {
	if s := n.Session(); s != nil && s.Contains(n) {
		return true
	}
	return n.HasChanged(ctx)
}

// dirty reports whether a save must flush n. Inside a session every edit of
// a bound node is registered, so the store is not consulted.
func dirty(ctx context.Context, n Node) bool {
	if s := n.Session(); s != nil {
		return s.Contains(n)
	}
	return n.HasChanged(ctx)
}

// lock takes the commit lock of s, if any, and returns its release func.
func lock(ctx context.Context, s *Session) (func(), error) {
	if s == nil {
		return func() {}, nil
	}
	if err := s.Lock(ctx); err != nil {
		return nil, err
	}
	return s.Release, nil
}
