package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterPrint(t *testing.T) {
	listing := Listing{{Name: "a.json", Path: "/a.json", Kind: "file", Format: "json", Size: 2048}}

	tests := []struct {
		format Format
		want   []string
	}{
		{format: FormatTable, want: []string{"NAME", "a.json", "2.0 KiB"}},
		{format: FormatJSON, want: []string{`"path": "/a.json"`, `"size": 2048`}},
		{format: FormatYAML, want: []string{"path: /a.json", "format: json"}},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, NewPrinter(&buf, tt.format, false).Print(listing))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestPrinterTableFallsBackToYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(map[string]int{"count": 3}))
	assert.Equal(t, "count: 3\n", buf.String())
}

func TestPrinterStatus(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, FormatTable, false).Status("removed %s", "/a.txt")
	assert.Equal(t, "removed /a.txt\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatTable, true).Status("ok")
	assert.Equal(t, "\033[32mok\033[0m\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatJSON, false).Status("removed %s", "/a.txt")
	assert.Empty(t, buf.String())
}

func TestPrinterWarning(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, FormatJSON, false).Warning("3 nodes pending")
	assert.Equal(t, "3 nodes pending\n", buf.String())
}
