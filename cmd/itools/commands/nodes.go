package commands

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/nkhine/itools/internal/cli/output"
	"github.com/nkhine/itools/pkg/formats"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
)

// treePath normalizes a command-line path to an absolute tree path.
func treePath(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

// splitTarget splits an absolute tree path into its folder and final name.
func splitTarget(p string) (dir, name string) {
	dir, name = path.Split(p)
	return treePath(dir), name
}

// describe summarizes n for listings. Files are loaded to report their
// serialized size.
func describe(ctx context.Context, n handler.Node) (output.Entry, error) {
	e := output.Entry{
		Name: n.Name(),
		Path: n.Path(),
		Kind: n.Kind().String(),
	}
	if e.Name == "" {
		e.Name = "/"
	}

	if f, ok := n.(*handler.File); ok {
		e.Format = f.Format().Name()
		data, err := f.Bytes(ctx)
		if err != nil {
			return e, err
		}
		e.Size = int64(len(data))
	}

	if r := n.Resource(); r != nil {
		if mtime, ok, err := r.ModTime(ctx); err == nil && ok {
			e.Modified = &mtime
		}
	} else {
		e.Status = "new"
	}
	if n.Session().Contains(n) {
		e.Status = "pending"
	}
	return e, nil
}

// newFile creates a detached file for name. An explicit format name wins;
// otherwise the session registry picks one from the name.
func newFile(sess *handler.Session, name, formatName string) (*handler.File, error) {
	if formatName != "" {
		f, ok := formats.Lookup(formatName)
		if !ok {
			return nil, fmt.Errorf("unknown format %q (valid: %s)", formatName, strings.Join(formats.Names(), ", "))
		}
		return handler.NewFile(f), nil
	}

	sig := handler.Signature{Name: name, Kind: resource.KindFile}
	if f, ok := sess.Registry().Resolve(sig)(sig).(*handler.File); ok {
		return f, nil
	}
	return handler.NewFile(handler.Opaque), nil
}

// mkdirAll stages every missing folder along p and returns the last one.
func mkdirAll(ctx context.Context, root *handler.Folder, p string) (*handler.Folder, error) {
	dir := root
	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		if seg == "" {
			continue
		}
		n, err := dir.GetHandler(ctx, seg)
		switch {
		case err == nil:
			next, ok := n.(*handler.Folder)
			if !ok {
				return nil, fmt.Errorf("%s: not a folder", n.Path())
			}
			dir = next
		case handler.IsNotFoundError(err):
			next := handler.NewFolder()
			if err := dir.SetHandler(ctx, seg, next); err != nil {
				return nil, err
			}
			dir = next
		default:
			return nil, err
		}
	}
	return dir, nil
}
