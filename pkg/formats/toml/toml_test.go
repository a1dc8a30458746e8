package toml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
)

const sample = `title = "tree"

[server]
host = "localhost"
port = 8080

[[rules]]
name = "a"
`

func load(t *testing.T, s string) *Document {
	t.Helper()
	st, err := Format.Load([]byte(s))
	require.NoError(t, err)
	return st.(*Document)
}

func TestGet(t *testing.T) {
	t.Parallel()
	d := load(t, sample)

	tests := []struct {
		key  string
		want any
	}{
		{"title", "tree"},
		{"server.host", "localhost"},
		{"server.port", int64(8080)},
	}
	for _, tt := range tests {
		got, err := d.Get(tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}

	_, err := d.Get("server.missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = d.Get("title.deeper")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"rules", "server", "title"}, d.Keys())
}

func TestSetDeleteRoundTrip(t *testing.T) {
	t.Parallel()
	d := load(t, sample)

	require.NoError(t, d.Set("server.port", 9090))
	require.NoError(t, d.Set("owner.name", "ana"))
	assert.Error(t, d.Set("title.sub", 1))
	d.Delete("server.host")
	d.Delete("nope.key")

	data, err := d.Serialize()
	require.NoError(t, err)

	again := load(t, string(data))
	port, err := again.Get("server.port")
	require.NoError(t, err)
	assert.Equal(t, int64(9090), port)

	name, err := again.Get("owner.name")
	require.NoError(t, err)
	assert.Equal(t, "ana", name)

	_, err = again.Get("server.host")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, err := Format.Load([]byte("a = "))
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()
	d := load(t, sample)

	c := d.Clone().(*Document)
	require.NoError(t, c.Set("server.host", "example.com"))
	c.Values["rules"].([]any)[0].(map[string]any)["name"] = "b"

	host, err := d.Get("server.host")
	require.NoError(t, err)
	assert.Equal(t, "localhost", host)
	assert.Equal(t, "a", d.Values["rules"].([]any)[0].(map[string]any)["name"])
}

func TestRegister(t *testing.T) {
	t.Parallel()

	r := handler.NewRegistry()
	Register(r)

	sig := handler.Signature{Name: "Cargo.toml", Kind: resource.KindFile}
	f := r.Resolve(sig)(sig).(*handler.File)
	assert.Equal(t, "toml", f.Format().Name())
}
