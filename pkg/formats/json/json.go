// Package json provides the JSON document format. Documents are kept as
// raw bytes and read with gjson paths and edited with sjson, so formatting
// and key order survive edits.
package json

import (
	"errors"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/nkhine/itools/pkg/handler"
)

// ErrInvalidJSON is returned by Load for malformed input.
var ErrInvalidJSON = errors.New("invalid JSON")

// Format parses JSON documents.
var Format handler.Format = format{}

// MIMEType is the tag registered for JSON.
const MIMEType = "application/json"

type format struct{}

func (format) Name() string { return "json" }

func (format) New() handler.State { return &Document{raw: []byte("{}")} }

func (format) Load(data []byte) (handler.State, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return &Document{raw: slices.Clone(data)}, nil
}

// Register binds the JSON format to ".json" and its MIME type.
func Register(r *handler.Registry) {
	f := handler.FileFactory(Format)
	r.Register(handler.Suffix(".json"), f)
	r.Register(handler.Tag(MIMEType), f)
}

// Document is the state of a JSON file.
type Document struct {
	raw []byte
}

func (d *Document) Serialize() ([]byte, error) { return slices.Clone(d.raw), nil }

func (d *Document) Clone() handler.State { return &Document{raw: slices.Clone(d.raw)} }

// Get returns the value at a gjson path ("a.b", "items.0", "items.#").
func (d *Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.raw, path)
}

// Exists reports whether path resolves to a value.
func (d *Document) Exists(path string) bool {
	return d.Get(path).Exists()
}

// Set stores value at an sjson path, creating intermediate objects.
func (d *Document) Set(path string, value any) error {
	raw, err := sjson.SetBytes(d.raw, path, value)
	if err != nil {
		return err
	}
	d.raw = raw
	return nil
}

// SetRaw stores a raw JSON fragment at path. The fragment is validated.
func (d *Document) SetRaw(path, fragment string) error {
	if !gjson.Valid(fragment) {
		return ErrInvalidJSON
	}
	raw, err := sjson.SetRawBytes(d.raw, path, []byte(fragment))
	if err != nil {
		return err
	}
	d.raw = raw
	return nil
}

// Delete removes the value at path. Missing paths are not an error.
func (d *Document) Delete(path string) error {
	raw, err := sjson.DeleteBytes(d.raw, path)
	if err != nil {
		return err
	}
	d.raw = raw
	return nil
}
