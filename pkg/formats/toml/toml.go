// Package toml provides the TOML document format. The state is the decoded
// table tree; keys are written back in sorted order.
package toml

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/nkhine/itools/pkg/handler"
)

// ErrNotFound is returned by Get for keys that do not resolve.
var ErrNotFound = errors.New("toml key not found")

// Format parses TOML documents.
var Format handler.Format = format{}

// MIMEType is the tag registered for TOML.
const MIMEType = "application/toml"

type format struct{}

func (format) Name() string { return "toml" }

func (format) New() handler.State { return &Document{Values: map[string]any{}} }

func (format) Load(data []byte) (handler.State, error) {
	values := map[string]any{}
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return &Document{Values: values}, nil
}

// Register binds the TOML format to ".toml" and its MIME type.
func Register(r *handler.Registry) {
	f := handler.FileFactory(Format)
	r.Register(handler.Suffix(".toml"), f)
	r.Register(handler.Tag(MIMEType), f)
}

// Document is the state of a TOML file.
type Document struct {
	Values map[string]any
}

func (d *Document) Serialize() ([]byte, error) {
	return toml.Marshal(d.Values)
}

func (d *Document) Clone() handler.State {
	return &Document{Values: deepCopy(d.Values).(map[string]any)}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = deepCopy(val)
		}
		return s
	default:
		return v
	}
}

// Get returns the value at a dotted key.
func (d *Document) Get(key string) (any, error) {
	var cur any = d.Values
	for _, seg := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		if cur, ok = m[seg]; !ok {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
	}
	return cur, nil
}

// Set stores value at a dotted key, creating intermediate tables.
func (d *Document) Set(key string, value any) error {
	segs := strings.Split(key, ".")
	m := d.Values
	for _, seg := range segs[:len(segs)-1] {
		next, ok := m[seg]
		if !ok {
			sub := map[string]any{}
			m[seg] = sub
			m = sub
			continue
		}
		sub, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %q is not a table", key, seg)
		}
		m = sub
	}
	m[segs[len(segs)-1]] = value
	return nil
}

// Delete removes a dotted key. Missing keys are not an error.
func (d *Document) Delete(key string) {
	segs := strings.Split(key, ".")
	m := d.Values
	for _, seg := range segs[:len(segs)-1] {
		sub, ok := m[seg].(map[string]any)
		if !ok {
			return
		}
		m = sub
	}
	delete(m, segs[len(segs)-1])
}

// Keys returns the top-level keys.
func (d *Document) Keys() []string {
	return sortedKeys(d.Values)
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
