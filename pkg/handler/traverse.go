package handler

import (
	"context"
	"iter"

	"github.com/nkhine/itools/pkg/handler/errors"
	"github.com/nkhine/itools/pkg/resource"
)

// Traverse returns a depth-first sequence of f and every visible
// descendant, in name order. Children are resolved, and folders listed, as
// the sequence advances. Each range over the sequence starts afresh.
//
// A resolution error is yielded with a nil Node; the walk continues with
// the next sibling unless the loop body stops.
func (f *Folder) Traverse(ctx context.Context) iter.Seq2[Node, error] {
	return func(yield func(Node, error) bool) {
		f.walk(ctx, yield)
	}
}

func (f *Folder) walk(ctx context.Context, yield func(Node, error) bool) bool {
	if !yield(f, nil) {
		return false
	}
	names, err := f.Names(ctx)
	if err != nil {
		return yield(nil, err)
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return false
		}
		n, err := f.child(ctx, name)
		if err != nil {
			if !yield(nil, err) {
				return false
			}
			continue
		}
		if dir, ok := n.(*Folder); ok {
			if !dir.walk(ctx, yield) {
				return false
			}
			continue
		}
		if !yield(n, nil) {
			return false
		}
	}
	return true
}

// Children returns the visible children of f in name order, without
// descending. A child that fails to resolve is yielded as an error and the
// sequence moves on to the next name.
func (f *Folder) Children(ctx context.Context) iter.Seq2[Node, error] {
	return func(yield func(Node, error) bool) {
		names, err := f.Names(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, name := range names {
			if !yield(f.child(ctx, name)) {
				return
			}
		}
	}
}

// Acquire resolves name as a child of f or, failing that, of the nearest
// ancestor that has it. It fails with a NotFoundError when no folder up to
// the root has the name.
func (f *Folder) Acquire(ctx context.Context, name string) (Node, error) {
	if err := resource.ValidateName(name); err != nil {
		return nil, errors.NewInvalidArgumentError(f.Path(), "acquire needs a single name")
	}
	for dir := f; dir != nil; dir = dir.Parent() {
		n, err := dir.child(ctx, name)
		if err == nil {
			return n, nil
		}
		if !errors.IsNotFoundError(err) {
			return nil, err
		}
	}
	return nil, errors.NewNotFoundError(f.Path(), name)
}
