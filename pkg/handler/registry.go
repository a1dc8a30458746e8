package handler

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/pkg/resource"
)

// Signature describes a stored child for type dispatch.
type Signature struct {
	Name string
	Kind resource.Kind
	Tag  string
}

// Factory builds an unbound node for a stored child. The tree binds the
// node to its resource afterwards; factories must not load anything.
type Factory func(sig Signature) Node

// FileFactory returns a Factory producing files parsed with format.
func FileFactory(format Format) Factory {
	return func(Signature) Node { return NewFile(format) }
}

// FolderFactory returns a Factory producing folders configured by opts.
// Skeletons are not applied to stored folders.
func FolderFactory(opts ...FolderOption) Factory {
	return func(Signature) Node { return newFolder(opts) }
}

func defaultNode(kind resource.Kind) Node {
	if kind == resource.KindFolder {
		return newFolder(nil)
	}
	return NewFile(Opaque)
}

type discriminatorType int

const (
	bySuffix discriminatorType = iota
	byKind
	byTag
)

// Discriminator selects the children a Factory applies to.
type Discriminator struct {
	by    discriminatorType
	value string
	kind  resource.Kind
}

// Suffix matches child names ending in s, case-insensitively. The longest
// matching suffix wins.
func Suffix(s string) Discriminator {
	return Discriminator{by: bySuffix, value: strings.ToLower(s)}
}

// OfKind matches every child of kind k.
func OfKind(k resource.Kind) Discriminator {
	return Discriminator{by: byKind, kind: k}
}

// Tag matches children whose resource carries tag.
func Tag(tag string) Discriminator {
	return Discriminator{by: byTag, value: tag}
}

func (d Discriminator) String() string {
	switch d.by {
	case bySuffix:
		return "suffix:" + d.value
	case byKind:
		return "kind:" + d.kind.String()
	case byTag:
		return "tag:" + d.value
	default:
		return fmt.Sprintf("discriminator(%d)", int(d.by))
	}
}

// Registry maps discriminators to factories.
//
// Resolve consults, in order: the child's tag; for folders, a folder-kind
// entry or the built-in folder; the longest matching name suffix; a
// kind entry; the default factory. It never fails.
type Registry struct {
	mu       sync.RWMutex
	entries  map[Discriminator]Factory
	suffixes []string
	fallback Factory
}

// NewRegistry creates a registry with only the built-in fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[Discriminator]Factory),
		fallback: FileFactory(Opaque),
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry that format packages
// populate from their Register functions.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register associates d with f. A later registration for the same
// discriminator replaces the earlier one and logs a warning.
func (r *Registry) Register(d Discriminator, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[d]; ok {
		logger.Warn("handler factory replaced", logger.KeyDiscriminator, d.String())
	} else if d.by == bySuffix {
		r.suffixes = append(r.suffixes, d.value)
		slices.SortFunc(r.suffixes, func(a, b string) int {
			if c := cmp.Compare(len(b), len(a)); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})
	}
	r.entries[d] = f
}

// SetDefault replaces the factory used when nothing else matches.
func (r *Registry) SetDefault(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = f
}

// Resolve returns the factory for sig.
func (r *Registry) Resolve(sig Signature) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sig.Tag != "" {
		if f, ok := r.entries[Tag(sig.Tag)]; ok {
			return f
		}
	}

	if sig.Kind == resource.KindFolder {
		if f, ok := r.entries[OfKind(resource.KindFolder)]; ok {
			return f
		}
		return FolderFactory()
	}

	name := strings.ToLower(sig.Name)
	for _, s := range r.suffixes {
		if strings.HasSuffix(name, s) {
			return r.entries[Suffix(s)]
		}
	}

	if f, ok := r.entries[OfKind(sig.Kind)]; ok {
		return f
	}
	return r.fallback
}

// Discriminators lists the registered discriminators, sorted by their
// string form.
func (r *Registry) Discriminators() []Discriminator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Discriminator, 0, len(r.entries))
	for d := range r.entries {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Discriminator) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}
