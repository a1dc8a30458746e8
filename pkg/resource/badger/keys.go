package badger

import (
	"bytes"
	"time"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/nkhine/itools/pkg/resource"
)

// Key namespace:
//
//	Data Type     Prefix  Key Format                  Value
//	==========================================================
//	Node record   "n:"    n:<path>                    record (XDR)
//	File bytes    "d:"    d:<path>                    raw bytes
//	Child index   "c:"    c:<parentPath>\x00<name>    empty
//
// Paths are slash separated and start with "/"; the root is "/". The child
// index separator sorts before every valid name byte, so a prefix scan over
// c:<parentPath>\x00 yields children in lexical order.
const (
	prefixNode  = "n:"
	prefixData  = "d:"
	prefixChild = "c:"

	rootPath = "/"
)

// record is the value stored under a node key.
type record struct {
	Kind  resource.Kind
	MTime int64
	Tag   string
}

func (r *record) modTime() time.Time { return time.Unix(0, r.MTime) }

// wireRecord is the XDR layout of a record: a 4-byte kind, an 8-byte
// mtime in nanoseconds and a length-prefixed tag.
type wireRecord struct {
	Kind  int32
	MTime int64
	Tag   string
}

func encodeRecord(r *record) ([]byte, error) {
	var buf bytes.Buffer
	w := wireRecord{Kind: int32(r.Kind), MTime: r.MTime, Tag: r.Tag}
	if _, err := xdr.Marshal(&buf, &w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*record, error) {
	var w wireRecord
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &w); err != nil {
		return nil, err
	}
	return &record{Kind: resource.Kind(w.Kind), MTime: w.MTime, Tag: w.Tag}, nil
}

func keyNode(p string) []byte { return []byte(prefixNode + p) }

func keyData(p string) []byte { return []byte(prefixData + p) }

func keyChild(parent, name string) []byte {
	return []byte(prefixChild + parent + "\x00" + name)
}

func keyChildPrefix(parent string) []byte {
	return []byte(prefixChild + parent + "\x00")
}

// childPath joins a container path and a child name.
func childPath(parent, name string) string {
	if parent == rootPath {
		return rootPath + name
	}
	return parent + "/" + name
}

// descendantPrefix returns the path prefix shared by everything below p.
func descendantPrefix(p string) string {
	if p == rootPath {
		return rootPath
	}
	return p + "/"
}
