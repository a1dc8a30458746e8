package output

import (
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	// Headers returns the column headers for the table.
	Headers() []string
	// Rows returns the data rows for the table.
	Rows() [][]string
}

// PrintTable writes data as a borderless, left-aligned table.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := newTable(w, "")
	table.SetHeader(data.Headers())
	table.SetAutoFormatHeaders(true)
	table.AppendBulk(data.Rows())
	table.Render()
	return nil
}

// Properties is an ordered list of key/value pairs rendered as "key: value"
// lines in table format and as a mapping otherwise.
type Properties [][2]string

// Add appends a pair.
func (p *Properties) Add(key, value string) {
	*p = append(*p, [2]string{key, value})
}

// PrintProperties writes p as an aligned two-column table.
func PrintProperties(w io.Writer, p Properties) error {
	table := newTable(w, ":")
	table.SetAutoFormatHeaders(false)
	for _, pair := range p {
		table.Append([]string{pair[0], pair[1]})
	}
	table.Render()
	return nil
}

// MarshalYAML emits the pairs as a mapping in insertion order.
func (p Properties) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, pair := range p {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair[0]},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair[1]})
	}
	return n, nil
}

// MarshalJSON emits the pairs as an object.
func (p Properties) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(p))
	for _, pair := range p {
		m[pair[0]] = pair[1]
	}
	return json.Marshal(m)
}

func newTable(w io.Writer, columnSeparator string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(columnSeparator)
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
