// Package formats registers every built-in file format.
package formats

import (
	"maps"
	"slices"

	"github.com/nkhine/itools/pkg/formats/image"
	"github.com/nkhine/itools/pkg/formats/json"
	"github.com/nkhine/itools/pkg/formats/text"
	"github.com/nkhine/itools/pkg/formats/toml"
	"github.com/nkhine/itools/pkg/formats/yaml"
	"github.com/nkhine/itools/pkg/handler"
)

var builtin = map[string]handler.Format{
	text.Format.Name():  text.Format,
	json.Format.Name():  json.Format,
	yaml.Format.Name():  yaml.Format,
	toml.Format.Name():  toml.Format,
	image.Format.Name(): image.Format,
}

// RegisterAll registers the text, JSON, YAML, TOML and image formats on r.
func RegisterAll(r *handler.Registry) {
	text.Register(r)
	json.Register(r)
	yaml.Register(r)
	toml.Register(r)
	image.Register(r)
}

// NewRegistry returns a registry with every built-in format registered.
func NewRegistry() *handler.Registry {
	r := handler.NewRegistry()
	RegisterAll(r)
	return r
}

// Lookup returns the built-in format called name.
func Lookup(name string) (handler.Format, bool) {
	f, ok := builtin[name]
	return f, ok
}

// Names lists the built-in format names in lexical order.
func Names() []string {
	return slices.Sorted(maps.Keys(builtin))
}
