// Package resource defines the byte-oriented backing store contract the
// handler tree is built on.
//
// A Resource is a single stored object: either a file holding bytes or a
// folder (Container) holding named child resources. Implementations live in
// the sub-packages (memory, fs, billy, badger, sql, s3) and are validated by
// the conformance suite in resourcetest.
package resource

import (
	"context"
	"time"
)

// Kind distinguishes byte resources from containers.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// Resource is one stored object.
//
// Read, Write and Append fail with ErrIsContainer on folders. ModTime
// reports ok=false when the store cannot provide a modification time; the
// handler tree then treats the resource as conservatively outdated.
type Resource interface {
	Kind() Kind
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Append(ctx context.Context, data []byte) error
	ModTime(ctx context.Context) (mtime time.Time, ok bool, err error)
}

// Container is a Resource holding named children.
//
// Create fails with ErrExists when name is already taken; callers replacing
// an entry must DeleteChild first. Child fails with ErrNotFound for unknown
// names. List returns child names in lexical order. Creating or deleting a
// child advances the container's modification time.
type Container interface {
	Resource
	Child(ctx context.Context, name string) (Resource, error)
	Create(ctx context.Context, name string, kind Kind) (Resource, error)
	DeleteChild(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// Tagged is implemented by resources that carry an explicit content tag
// (for example a MIME type or S3 Content-Type). The tag takes precedence
// over naming conventions when choosing a handler type.
type Tagged interface {
	Tag(ctx context.Context) (string, error)
}

// Taggable is implemented by resources whose tag can be set.
type Taggable interface {
	SetTag(ctx context.Context, tag string) error
}

// Store is an opened backing store.
type Store interface {
	// Root returns the top-level container.
	Root() Container

	// Type returns the store type name (memory, fs, billy, badger, sql, s3).
	Type() string

	// Close releases the store. Resources obtained from it become unusable
	// and fail with ErrClosed.
	Close() error
}
