package resource

import (
	"context"
	"fmt"
)

// SetChild creates name under dst as a copy of src: bytes for files, the
// whole subtree for containers. It is the store-agnostic "set child"
// operation and works across different stores.
//
// The name must be free; SetChild fails with ErrExists otherwise.
func SetChild(ctx context.Context, dst Container, name string, src Resource) (Resource, error) {
	child, err := dst.Create(ctx, name, src.Kind())
	if err != nil {
		return nil, err
	}
	if err := Copy(ctx, child, src); err != nil {
		return nil, fmt.Errorf("copy into %q: %w", name, err)
	}
	return child, nil
}

// Copy populates dst from src. For files dst's bytes are replaced; for
// containers every child of src is recreated under dst, which is expected
// to be empty.
func Copy(ctx context.Context, dst, src Resource) error {
	if dst.Kind() != src.Kind() {
		return fmt.Errorf("copy %s into %s: %w", src.Kind(), dst.Kind(), ErrNotContainer)
	}

	if src.Kind() == KindFile {
		data, err := src.Read(ctx)
		if err != nil {
			return err
		}
		if err := dst.Write(ctx, data); err != nil {
			return err
		}
		return copyTag(ctx, dst, src)
	}

	sc, ok := src.(Container)
	if !ok {
		return ErrNotContainer
	}
	dc, ok := dst.(Container)
	if !ok {
		return ErrNotContainer
	}

	names, err := sc.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		child, err := sc.Child(ctx, name)
		if err != nil {
			return err
		}
		if _, err := SetChild(ctx, dc, name, child); err != nil {
			return err
		}
	}
	return nil
}

func copyTag(ctx context.Context, dst, src Resource) error {
	st, ok := src.(Tagged)
	if !ok {
		return nil
	}
	dt, ok := dst.(Taggable)
	if !ok {
		return nil
	}
	tag, err := st.Tag(ctx)
	if err != nil || tag == "" {
		return err
	}
	return dt.SetTag(ctx, tag)
}

// Walk calls fn for root and every descendant, depth first, with the
// slash-separated path relative to root ("" for root itself). Children are
// visited in List order.
func Walk(ctx context.Context, root Resource, fn func(path string, r Resource) error) error {
	return walk(ctx, "", root, fn)
}

func walk(ctx context.Context, path string, r Resource, fn func(string, Resource) error) error {
	if err := fn(path, r); err != nil {
		return err
	}
	c, ok := r.(Container)
	if !ok {
		return nil
	}
	names, err := c.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		child, err := c.Child(ctx, name)
		if err != nil {
			return err
		}
		p := name
		if path != "" {
			p = path + "/" + name
		}
		if err := walk(ctx, p, child, fn); err != nil {
			return err
		}
	}
	return nil
}
