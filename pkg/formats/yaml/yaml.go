// Package yaml provides the YAML document format on top of the yaml.v3
// node tree, which keeps comments and key order across a load/save cycle.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nkhine/itools/pkg/handler"
)

// ErrNotFound is returned by Get for paths that do not resolve.
var ErrNotFound = errors.New("yaml path not found")

// Format parses YAML documents.
var Format handler.Format = format{}

// MIMEType is the tag registered for YAML.
const MIMEType = "application/yaml"

type format struct{}

func (format) Name() string { return "yaml" }

func (format) New() handler.State { return newDocument() }

func (format) Load(data []byte) (handler.State, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return newDocument(), nil
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &Document{root: &root}, nil
}

// Register binds the YAML format to ".yaml", ".yml" and its MIME type.
func Register(r *handler.Registry) {
	f := handler.FileFactory(Format)
	r.Register(handler.Suffix(".yaml"), f)
	r.Register(handler.Suffix(".yml"), f)
	r.Register(handler.Tag(MIMEType), f)
}

// Document is the state of a YAML file.
type Document struct {
	root *yaml.Node
}

func newDocument() *Document {
	return &Document{root: &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
	}}
}

func (d *Document) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) Clone() handler.State { return &Document{root: copyNode(d.root)} }

func copyNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Content = make([]*yaml.Node, len(n.Content))
	for i, child := range n.Content {
		c.Content[i] = copyNode(child)
	}
	c.Alias = copyNode(n.Alias)
	return &c
}

// Decode decodes the whole document into v.
func (d *Document) Decode(v any) error {
	return d.root.Decode(v)
}

// body returns the top-level value node.
func (d *Document) body() *yaml.Node {
	if d.root.Kind == yaml.DocumentNode && len(d.root.Content) > 0 {
		return d.root.Content[0]
	}
	return d.root
}

// lookup walks a dotted path; numeric segments index sequences.
func lookup(n *yaml.Node, path string) (*yaml.Node, error) {
	if path == "" {
		return n, nil
	}
	for _, seg := range strings.Split(path, ".") {
		switch n.Kind {
		case yaml.MappingNode:
			v := mappingValue(n, seg)
			if v == nil {
				return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
			}
			n = v
		case yaml.SequenceNode:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(n.Content) {
				return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
			}
			n = n.Content[i]
		default:
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
	}
	return n, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Get decodes the value at a dotted path into v.
func (d *Document) Get(path string, v any) error {
	n, err := lookup(d.body(), path)
	if err != nil {
		return err
	}
	return n.Decode(v)
}

// Set encodes value and stores it at a dotted path, creating intermediate
// mappings. Existing keys keep their position and comments.
func (d *Document) Set(path string, value any) error {
	var enc yaml.Node
	if err := enc.Encode(value); err != nil {
		return err
	}

	segs := strings.Split(path, ".")
	n := d.body()
	for i, seg := range segs {
		last := i == len(segs)-1
		if n.Kind != yaml.MappingNode {
			return fmt.Errorf("%s: not a mapping at %q", path, seg)
		}
		v := mappingValue(n, seg)
		if v == nil {
			v = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: seg}, v)
		}
		if last {
			hc, lc := v.HeadComment, v.LineComment
			*v = enc
			v.HeadComment, v.LineComment = hc, lc
			return nil
		}
		n = v
	}
	return nil
}

// Delete removes the key at a dotted path. Missing keys are not an error.
func (d *Document) Delete(path string) error {
	parent, key := "", path
	if i := strings.LastIndex(path, "."); i >= 0 {
		parent, key = path[:i], path[i+1:]
	}
	m, err := lookup(d.body(), parent)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if m.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: not a mapping", parent)
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return nil
		}
	}
	return nil
}
