package handler

import "slices"

// State is the semantic content of a File. A State is owned by exactly one
// File; Clone must return a deep copy sharing no mutable memory.
type State interface {
	Serialize() ([]byte, error)
	Clone() State
}

// Format parses bytes into State.
//
// New returns the default state for a file that has no backing resource
// yet. Load must fail (any error; the tree reports it as a ParseError) on
// malformed input, and Load(Serialize(s)) must be semantically equal to s.
type Format interface {
	Name() string
	New() State
	Load(data []byte) (State, error)
}

// Opaque is the fallback format: the state is the raw bytes.
var Opaque Format = opaqueFormat{}

type opaqueFormat struct{}

func (opaqueFormat) Name() string { return "opaque" }

func (opaqueFormat) New() State { return &Blob{} }

func (opaqueFormat) Load(data []byte) (State, error) {
	return &Blob{Data: slices.Clone(data)}, nil
}

// Blob is the State of an opaque file.
type Blob struct {
	Data []byte
}

func (b *Blob) Serialize() ([]byte, error) { return slices.Clone(b.Data), nil }

func (b *Blob) Clone() State { return &Blob{Data: slices.Clone(b.Data)} }
