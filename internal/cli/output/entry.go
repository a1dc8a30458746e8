package output

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Entry describes one node of a handler tree.
type Entry struct {
	Name     string     `json:"name" yaml:"name"`
	Path     string     `json:"path" yaml:"path"`
	Kind     string     `json:"kind" yaml:"kind"`
	Format   string     `json:"format,omitempty" yaml:"format,omitempty"`
	Size     int64      `json:"size" yaml:"size"`
	Modified *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
	Status   string     `json:"status,omitempty" yaml:"status,omitempty"`
}

// Listing is the result of listing a folder.
type Listing []Entry

// Headers implements TableRenderer.
func (l Listing) Headers() []string {
	return []string{"Name", "Kind", "Format", "Size", "Modified", "Status"}
}

// Rows implements TableRenderer. Sizes and times are humanized; folders
// show no size.
func (l Listing) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		size := "-"
		if e.Kind == "file" {
			size = humanize.IBytes(uint64(e.Size))
		}
		modified := "-"
		if e.Modified != nil {
			modified = humanize.Time(*e.Modified)
		}
		status := e.Status
		if status == "" {
			status = "-"
		}
		rows = append(rows, []string{e.Name, e.Kind, e.Format, size, modified, status})
	}
	return rows
}
