package handler

import (
	"context"
	stderrors "errors"
	"maps"
	"slices"
	"time"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/internal/telemetry"
	"github.com/nkhine/itools/pkg/handler/errors"
	"github.com/nkhine/itools/pkg/resource"
)

// Save flushes the folder's overlays and every pending descendant to the
// store under the session lock.
//
// Removed names are deleted first. Each added child is then created (after
// deleting any stored entry with the same name), bound to its new resource
// and saved recursively. Finally resolved children with pending edits are
// saved. A second Save without intervening edits makes no store calls.
func (f *Folder) Save(ctx context.Context) error {
	release, err := lock(ctx, f.sess)
	if err != nil {
		return err
	}
	defer release()
	return f.save(ctx)
}

func (f *Folder) save(ctx context.Context) (err error) {
	if f.res == nil {
		return errors.NewInvalidArgumentError(f.Path(), "folder has no resource")
	}
	if f.needsLoad() {
		// Never listed, so nothing can be staged below it.
		f.sess.Remove(f)
		return nil
	}

	path := f.Path()
	ctx, span := telemetry.StartHandlerSpan(ctx, telemetry.OpSave, path)
	defer span.End()

	start := time.Now()
	defer func() {
		f.sess.observeSave(resource.KindFolder, 0, time.Since(start), err)
		telemetry.RecordError(ctx, err)
	}()

	c, err := f.container()
	if err != nil {
		return err
	}

	nRemoved, nAdded := len(f.removed), len(f.added)
	changed := f.sess == nil || nRemoved+nAdded > 0 || f.sess.Contains(f)

	for _, name := range slices.Sorted(maps.Keys(f.removed)) {
		if err := c.DeleteChild(ctx, name); err != nil && !stderrors.Is(err, resource.ErrNotFound) {
			return errors.NewResourceError(path, "delete "+name, err)
		}
		delete(f.removed, name)
		delete(f.cache, name)
	}

	for _, name := range slices.Sorted(maps.Keys(f.added)) {
		if err := f.flushAdded(ctx, c, name); err != nil {
			return err
		}
	}

	for _, name := range slices.Sorted(maps.Keys(f.cache)) {
		n := f.cache[name]
		if n == nil {
			continue
		}
		if _, isDir := n.(*Folder); isDir || dirty(ctx, n) {
			if err := n.save(ctx); err != nil {
				return err
			}
		}
	}

	if changed {
		f.markSynced(ctx)
	}
	f.sess.Remove(f)

	if nRemoved+nAdded > 0 {
		logger.DebugCtx(ctx, "folder saved",
			logger.KeyPath, path,
			logger.KeyAdded, nAdded,
			logger.KeyRemoved, nRemoved)
	}
	return nil
}

// flushAdded writes one staged child and moves it from added to cache.
func (f *Folder) flushAdded(ctx context.Context, c resource.Container, name string) error {
	n := f.added[name]
	path := f.Path()

	if _, err := c.Child(ctx, name); err == nil {
		if err := c.DeleteChild(ctx, name); err != nil {
			return errors.NewResourceError(path, "replace "+name, err)
		}
	} else if !stderrors.Is(err, resource.ErrNotFound) {
		return errors.NewResourceError(path, "stat "+name, err)
	}

	r, err := c.Create(ctx, name, n.Kind())
	if err != nil {
		return errors.NewResourceError(path, "create "+name, err)
	}

	// Staged nodes hold no resource, so their in-memory state is
	// authoritative.
	if b := n.core(); b.stamp.IsZero() {
		b.stamp = b.now()
	}
	if err := rebind(ctx, n, r); err != nil {
		return err
	}

	delete(f.added, name)
	f.cache[name] = n
	if err := n.save(ctx); err != nil {
		return err
	}
	if dir, ok := n.(*Folder); ok {
		dir.markSynced(ctx)
	}
	return nil
}

// rebind points n, and every resolved descendant of a loaded folder, at the
// resources under r.
func rebind(ctx context.Context, n Node, r resource.Resource) error {
	n.core().res = r

	dir, ok := n.(*Folder)
	if !ok || dir.stamp.IsZero() {
		return nil
	}
	c, err := dir.container()
	if err != nil {
		return err
	}
	for name, child := range dir.cache {
		if child == nil {
			continue
		}
		cr, err := c.Child(ctx, name)
		if err != nil {
			return errors.NewResourceError(dir.Path(), "open child", err)
		}
		if err := rebind(ctx, child, cr); err != nil {
			return err
		}
	}
	return nil
}
