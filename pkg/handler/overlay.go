package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/pkg/handler/errors"
	"github.com/nkhine/itools/pkg/resource"
)

// splitPath separates the folder part of path from its final segment.
func splitPath(path string) (dir, name string) {
	path = strings.TrimRight(path, "/")
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	if i == 0 {
		return "/", path[1:]
	}
	return path[:i], path[i+1:]
}

func (f *Folder) parentOf(ctx context.Context, path string) (*Folder, string, error) {
	dir, name := splitPath(path)
	if err := resource.ValidateName(name); err != nil {
		return nil, "", errors.NewInvalidArgumentError(f.Path(), fmt.Sprintf("invalid child name %q", name))
	}
	parent, err := f.GetFolder(ctx, dir)
	if err != nil {
		return nil, "", err
	}
	return parent, name, nil
}

// SetHandler stages n as a new child at path. The folder part of path must
// already resolve to a folder. It fails with a ConflictError if the name is
// already visible, and with an InvalidArgumentError if n belongs to another
// folder (use Clone to copy a node).
//
// A detached node that still holds a resource, such as one removed with
// DelHandler, is loaded in full and loses its binding, so it can be put
// back under the same or another name.
//
// The node is written to the store by the next Save of any ancestor.
func (f *Folder) SetHandler(ctx context.Context, path string, n Node) error {
	if n == nil {
		return errors.NewInvalidArgumentError(f.Path(), "nil handler")
	}
	if n.Parent() != nil {
		return errors.NewInvalidArgumentError(n.Path(), "handler is already attached")
	}
	parent, name, err := f.parentOf(ctx, path)
	if err != nil {
		return err
	}
	return parent.setChild(ctx, name, n)
}

func (f *Folder) setChild(ctx context.Context, name string, n Node) error {
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}
	if f.exists(name) {
		return errors.NewConflictError(f.Path(), name)
	}

	if n.Resource() != nil {
		if err := loadTree(ctx, n); err != nil {
			return err
		}
		unbind(n)
	}

	delete(f.removed, name)
	f.added[name] = n
	n.core().adopt(f, name)
	n.attach(f.sess)
	f.touch(f)

	logger.Debug("handler staged",
		logger.KeyPath, f.Path(),
		logger.KeyName, name,
		logger.KeyKind, n.Kind().String())

	if f.hooks.OnSet != nil {
		return f.hooks.OnSet(ctx, f, name, n)
	}
	return nil
}

// loadTree reads n and every visible stored descendant into memory.
func loadTree(ctx context.Context, n Node) error {
	switch v := n.(type) {
	case *File:
		return v.ensureLoaded(ctx)
	case *Folder:
		if err := v.ensureLoaded(ctx); err != nil {
			return err
		}
		for _, name := range v.names() {
			child, err := v.child(ctx, name)
			if err != nil {
				return err
			}
			if err := loadTree(ctx, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// unbind turns a loaded subtree into fresh nodes: resources are dropped and
// every visible child of a folder moves to its added overlay. The subtree is
// then written from memory by the next Save, so it survives the deletion of
// the entries it was read from.
func unbind(n Node) {
	n.core().res = nil
	dir, ok := n.(*Folder)
	if !ok {
		return
	}
	for _, name := range dir.names() {
		child, staged := dir.added[name]
		if !staged {
			child = dir.cache[name]
		}
		unbind(child)
		dir.added[name] = child
	}
	dir.cache = make(map[string]Node)
	dir.removed = make(map[string]struct{})
}

// DelHandler stages the removal of the child at path. It fails with a
// NotFoundError if the name is not visible. A stored child is deleted from
// the store by the next Save; a staged one is simply dropped.
func (f *Folder) DelHandler(ctx context.Context, path string) error {
	parent, name, err := f.parentOf(ctx, path)
	if err != nil {
		return err
	}
	return parent.delChild(ctx, name)
}

func (f *Folder) delChild(ctx context.Context, name string) error {
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}
	if !f.exists(name) {
		return errors.NewNotFoundError(f.Path(), name)
	}
	if f.hooks.OnDel != nil {
		if err := f.hooks.OnDel(ctx, f, name); err != nil {
			return err
		}
	}

	if n, ok := f.added[name]; ok {
		delete(f.added, name)
		n.forget()
		n.core().detach()
	}
	if n, stored := f.cache[name]; stored {
		if n != nil {
			n.forget()
			n.core().detach()
			f.cache[name] = nil
		}
		f.removed[name] = struct{}{}
	}
	f.touch(f)

	logger.Debug("handler removed", logger.KeyPath, f.Path(), logger.KeyName, name)
	return nil
}

// CopyHandler stages a deep copy of the node at src as a new child at dst.
func (f *Folder) CopyHandler(ctx context.Context, src, dst string) error {
	n, err := f.GetHandler(ctx, src)
	if err != nil {
		return err
	}
	c, err := n.Clone(ctx)
	if err != nil {
		return err
	}
	return f.SetHandler(ctx, dst, c)
}

// MoveHandler stages a copy of src at dst and the removal of src.
func (f *Folder) MoveHandler(ctx context.Context, src, dst string) error {
	if err := f.CopyHandler(ctx, src, dst); err != nil {
		return err
	}
	return f.DelHandler(ctx, src)
}
