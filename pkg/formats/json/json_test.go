package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
)

func load(t *testing.T, s string) *Document {
	t.Helper()
	st, err := Format.Load([]byte(s))
	require.NoError(t, err)
	return st.(*Document)
}

func TestLoadRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "{", `{"a":}`, "nope"} {
		_, err := Format.Load([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidJSON, in)
	}
}

func TestGetSetDelete(t *testing.T) {
	t.Parallel()

	d := load(t, `{"name":"tree","tags":["a","b"]}`)

	assert.Equal(t, "tree", d.Get("name").String())
	assert.Equal(t, int64(2), d.Get("tags.#").Int())
	assert.False(t, d.Exists("owner"))

	require.NoError(t, d.Set("owner.name", "ana"))
	require.NoError(t, d.Set("tags.-1", "c"))
	require.NoError(t, d.SetRaw("limits", `{"max":3}`))
	require.NoError(t, d.Delete("name"))

	out, err := d.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, `{"tags":["a","b","c"],"owner":{"name":"ana"},"limits":{"max":3}}`, string(out))

	assert.ErrorIs(t, d.SetRaw("bad", "{"), ErrInvalidJSON)
}

func TestPreservesFormatting(t *testing.T) {
	t.Parallel()

	in := "{\n  \"b\": 1,\n  \"a\": 2\n}\n"
	d := load(t, in)
	out, err := d.Serialize()
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestNewAndClone(t *testing.T) {
	t.Parallel()

	d := Format.New().(*Document)
	assert.True(t, d.Get("@this").IsObject())

	c := d.Clone().(*Document)
	require.NoError(t, c.Set("x", 1))
	assert.False(t, d.Exists("x"))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	r := handler.NewRegistry()
	Register(r)

	sig := handler.Signature{Name: "data.JSON", Kind: resource.KindFile}
	f := r.Resolve(sig)(sig).(*handler.File)
	assert.Equal(t, "json", f.Format().Name())
}
