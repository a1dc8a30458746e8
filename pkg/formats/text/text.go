// Package text provides the plain text format: UTF-8 content addressed as
// a whole or line by line.
package text

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/nkhine/itools/pkg/handler"
)

// ErrInvalidUTF8 is returned by Load for content that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

// Format parses UTF-8 text.
var Format handler.Format = format{}

// Suffixes are the file name suffixes registered for text.
var Suffixes = []string{".txt", ".md", ".log"}

// MIMEType is the tag registered for text.
const MIMEType = "text/plain"

type format struct{}

func (format) Name() string { return "text" }

func (format) New() handler.State { return &Document{} }

func (format) Load(data []byte) (handler.State, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	return &Document{Text: string(data)}, nil
}

// Register binds the text format to its suffixes and MIME type.
func Register(r *handler.Registry) {
	f := handler.FileFactory(Format)
	for _, s := range Suffixes {
		r.Register(handler.Suffix(s), f)
	}
	r.Register(handler.Tag(MIMEType), f)
}

// Document is the state of a text file.
type Document struct {
	Text string
}

func (d *Document) Serialize() ([]byte, error) { return []byte(d.Text), nil }

func (d *Document) Clone() handler.State { return &Document{Text: d.Text} }

// Lines splits the text on "\n". A trailing newline does not produce an
// empty last line.
func (d *Document) Lines() []string {
	if d.Text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")
}

// SetLines replaces the text with lines joined by "\n", newline terminated.
func (d *Document) SetLines(lines []string) {
	if len(lines) == 0 {
		d.Text = ""
		return
	}
	d.Text = strings.Join(lines, "\n") + "\n"
}

// AppendLine adds a line, terminating the previous content first if needed.
func (d *Document) AppendLine(line string) {
	if d.Text != "" && !strings.HasSuffix(d.Text, "\n") {
		d.Text += "\n"
	}
	d.Text += line + "\n"
}
