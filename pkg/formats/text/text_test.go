package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	st, err := Format.Load([]byte("one\ntwo\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, st.(*Document).Lines())

	_, err = Format.Load([]byte{0xff, 0xfe})
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"blank line", "a\n\nb\n", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := &Document{Text: tt.text}
			assert.Equal(t, tt.want, d.Lines())
		})
	}
}

func TestEditing(t *testing.T) {
	t.Parallel()

	d := Format.New().(*Document)
	d.AppendLine("first")
	assert.Equal(t, "first\n", d.Text)

	d.Text = "no newline"
	d.AppendLine("second")
	assert.Equal(t, "no newline\nsecond\n", d.Text)

	d.SetLines([]string{"x", "y"})
	assert.Equal(t, "x\ny\n", d.Text)
	d.SetLines(nil)
	assert.Empty(t, d.Text)
}

func TestRoundTripAndClone(t *testing.T) {
	t.Parallel()

	in := []byte("héllo\nwörld")
	st, err := Format.Load(in)
	require.NoError(t, err)
	out, err := st.Serialize()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	c := st.Clone().(*Document)
	c.Text = "changed"
	assert.Equal(t, string(in), st.(*Document).Text)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	r := handler.NewRegistry()
	Register(r)

	for _, sig := range []handler.Signature{
		{Name: "README.md", Kind: resource.KindFile},
		{Name: "notes.TXT", Kind: resource.KindFile},
		{Name: "blob", Kind: resource.KindFile, Tag: MIMEType},
	} {
		f, ok := r.Resolve(sig)(sig).(*handler.File)
		require.True(t, ok, sig.Name)
		assert.Equal(t, "text", f.Format().Name(), sig.Name)
	}
}
