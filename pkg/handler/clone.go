package handler

import (
	"context"

	"github.com/nkhine/itools/pkg/handler/errors"
	"github.com/nkhine/itools/pkg/resource"
)

// Clone returns a detached folder whose added overlay holds clones of every
// visible child. The whole subtree is loaded in the process; virtual
// children are not copied.
func (f *Folder) Clone(ctx context.Context) (Node, error) {
	if err := f.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	out := newFolder(nil)
	out.hooks = f.hooks
	out.skeleton = f.skeleton

	for _, name := range f.names() {
		n, err := f.child(ctx, name)
		if err != nil {
			return nil, err
		}
		c, err := n.Clone(ctx)
		if err != nil {
			return nil, err
		}
		out.added[name] = c
		c.core().adopt(out, name)
	}
	return out, nil
}

// LoadFrom imports every child of the container r, replacing visible
// children with the same name. The imports are staged like SetHandler.
func (f *Folder) LoadFrom(ctx context.Context, r resource.Resource) error {
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}

	src := newBoundFolder(r, nil)
	src.sess = NewSession(WithRegistry(f.registry()), WithClock(f.now))
	names, err := src.Names(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		n, err := src.child(ctx, name)
		if err != nil {
			return err
		}
		c, err := n.Clone(ctx)
		if err != nil {
			return err
		}
		if f.exists(name) {
			if err := f.delChild(ctx, name); err != nil {
				return err
			}
		}
		if err := f.setChild(ctx, name, c); err != nil {
			return err
		}
	}
	f.touch(f)
	return nil
}

// SaveTo exports the visible subtree into the container r, replacing
// entries with the same name. The folder itself is not rebound.
func (f *Folder) SaveTo(ctx context.Context, r resource.Resource) error {
	release, err := lock(ctx, f.sess)
	if err != nil {
		return err
	}
	defer release()
	return f.saveTo(ctx, r)
}

func (f *Folder) saveTo(ctx context.Context, r resource.Resource) error {
	dst, ok := r.(resource.Container)
	if !ok || r.Kind() != resource.KindFolder {
		return errors.NewResourceError(f.Path(), "export", resource.ErrNotContainer)
	}
	names, err := f.Names(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		n, err := f.child(ctx, name)
		if err != nil {
			return err
		}
		if _, err := dst.Child(ctx, name); err == nil {
			if err := dst.DeleteChild(ctx, name); err != nil {
				return errors.NewResourceError(f.Path(), "replace "+name, err)
			}
		}
		cr, err := dst.Create(ctx, name, n.Kind())
		if err != nil {
			return errors.NewResourceError(f.Path(), "create "+name, err)
		}
		if err := n.saveTo(ctx, cr); err != nil {
			return err
		}
	}
	return nil
}
