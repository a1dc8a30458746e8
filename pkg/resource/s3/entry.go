package s3

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nkhine/itools/pkg/resource"
)

// entry is a handle on one key. For folders key has no trailing slash; the
// bucket root with no prefix has the empty key.
type entry struct {
	s    *Store
	key  string
	kind resource.Kind
}

var (
	_ resource.Container = (*entry)(nil)
	_ resource.Tagged    = (*entry)(nil)
	_ resource.Taggable  = (*entry)(nil)
)

// dir returns the listing prefix of a folder.
func (e *entry) dir() string {
	if e.key == "" {
		return ""
	}
	return e.key + "/"
}

// marker returns the folder marker key, or "" for the bucket root.
func (e *entry) marker() string { return e.dir() }

func (e *entry) childKey(name string) string {
	return e.dir() + name
}

func (e *entry) check(ctx context.Context, want resource.Kind) error {
	if err := e.s.check(ctx); err != nil {
		return err
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
	if err := e.check(ctx, resource.KindFile); err != nil {
		return nil, err
	}
	return e.s.get(ctx, e.key)
}

func (e *entry) Write(ctx context.Context, data []byte) error {
	if err := e.check(ctx, resource.KindFile); err != nil {
		return err
	}
	obj, err := e.s.head(ctx, e.key)
	if err != nil {
		return err
	}
	return e.s.put(ctx, e.key, data, obj.contentType)
}

func (e *entry) Append(ctx context.Context, data []byte) error {
	if err := e.check(ctx, resource.KindFile); err != nil {
		return err
	}
	obj, err := e.s.head(ctx, e.key)
	if err != nil {
		return err
	}
	old, err := e.s.get(ctx, e.key)
	if err != nil {
		return err
	}
	return e.s.put(ctx, e.key, append(old, data...), obj.contentType)
}

// ModTime reports ok=false for the bucket root, which has no marker.
func (e *entry) ModTime(ctx context.Context) (time.Time, bool, error) {
	if err := e.s.check(ctx); err != nil {
		return time.Time{}, false, err
	}
	key := e.key
	if e.kind == resource.KindFolder {
		key = e.marker()
		if key == "" {
			return time.Time{}, false, nil
		}
	}
	obj, err := e.s.head(ctx, key)
	if errors.Is(err, resource.ErrNotFound) && e.kind == resource.KindFolder {
		// Implicit folder without a marker.
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return obj.mtime, true, nil
}

func (e *entry) Tag(ctx context.Context) (string, error) {
	if err := e.s.check(ctx); err != nil {
		return "", err
	}
	if e.kind == resource.KindFolder {
		return "", nil
	}
	obj, err := e.s.head(ctx, e.key)
	if err != nil {
		return "", err
	}
	return obj.contentType, nil
}

func (e *entry) SetTag(ctx context.Context, tag string) error {
	if err := e.check(ctx, resource.KindFile); err != nil {
		return err
	}
	return e.s.setContentType(ctx, e.key, tag)
}

// lookup resolves key as a file or a folder.
func (e *entry) lookup(ctx context.Context, key string) (resource.Kind, error) {
	if _, err := e.s.head(ctx, key); err == nil {
		return resource.KindFile, nil
	} else if !errors.Is(err, resource.ErrNotFound) {
		return 0, err
	}
	ok, err := e.s.hasPrefix(ctx, key+"/")
	if err != nil {
		return 0, err
	}
	if ok {
		return resource.KindFolder, nil
	}
	return 0, fmt.Errorf("%q: %w", key, resource.ErrNotFound)
}

func (e *entry) Child(ctx context.Context, name string) (resource.Resource, error) {
	if err := e.check(ctx, resource.KindFolder); err != nil {
		return nil, err
	}
	if err := resource.ValidateName(name); err != nil {
		return nil, fmt.Errorf("child %q: %w", name, resource.ErrNotFound)
	}
	key := e.childKey(name)
	kind, err := e.lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("child: %w", err)
	}
	return &entry{s: e.s, key: key, kind: kind}, nil
}

// touch rewrites the folder marker so its LastModified advances.
func (e *entry) touch(ctx context.Context) error {
	if m := e.marker(); m != "" {
		return e.s.put(ctx, m, nil, folderContentType)
	}
	return nil
}

func (e *entry) Create(ctx context.Context, name string, kind resource.Kind) (resource.Resource, error) {
	if err := resource.ValidateName(name); err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}
	if err := e.check(ctx, resource.KindFolder); err != nil {
		return nil, err
	}

	key := e.childKey(name)
	if _, err := e.lookup(ctx, key); err == nil {
		return nil, fmt.Errorf("create %q: %w", key, resource.ErrExists)
	} else if !errors.Is(err, resource.ErrNotFound) {
		return nil, err
	}

	child := &entry{s: e.s, key: key, kind: kind}
	var err error
	if kind == resource.KindFolder {
		err = child.touch(ctx)
	} else {
		err = e.s.put(ctx, key, nil, "")
	}
	if err != nil {
		return nil, err
	}
	if err := e.touch(ctx); err != nil {
		return nil, err
	}
	return child, nil
}

func (e *entry) DeleteChild(ctx context.Context, name string) error {
	if err := e.check(ctx, resource.KindFolder); err != nil {
		return err
	}
	if err := resource.ValidateName(name); err != nil {
		return fmt.Errorf("delete %q: %w", name, resource.ErrNotFound)
	}

	key := e.childKey(name)
	kind, err := e.lookup(ctx, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	keys := []string{key}
	if kind == resource.KindFolder {
		if keys, err = e.s.keysBelow(ctx, key+"/"); err != nil {
			return err
		}
	}
	if err := e.s.deleteKeys(ctx, keys); err != nil {
		return err
	}
	return e.touch(ctx)
}

func (e *entry) List(ctx context.Context) ([]string, error) {
	if err := e.check(ctx, resource.KindFolder); err != nil {
		return nil, err
	}
	files, folders, err := e.s.list(ctx, e.dir())
	if err != nil {
		return nil, err
	}
	names := slices.Concat(files, folders)
	slices.Sort(names)
	return slices.Compact(names), nil
}
