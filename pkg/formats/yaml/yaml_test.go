package yaml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
)

const sample = `# service settings
name: tree # inline
ports:
  - 80
  - 443
limits:
  cpu: 2
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

	var name string
	require.NoError(t, d.Get("name", &name))
	assert.Equal(t, "tree", name)

	var port int
	require.NoError(t, d.Get("ports.1", &port))
	assert.Equal(t, 443, port)

	var cpu int
	require.NoError(t, d.Get("limits.cpu", &cpu))
	assert.Equal(t, 2, cpu)

	for _, p := range []string{"missing", "ports.9", "ports.x", "name.deeper"} {
		assert.ErrorIs(t, d.Get(p, new(any)), ErrNotFound, p)
	}
}

func TestSetKeepsComments(t *testing.T) {
	t.Parallel()
	d := load(t, sample)

	require.NoError(t, d.Set("name", "forest"))
	require.NoError(t, d.Set("limits.memory", "1Gi"))
	require.NoError(t, d.Set("owner.team", "infra"))

	out, err := d.Serialize()
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "# service settings")
	assert.Contains(t, s, "name: forest")
	assert.Contains(t, s, "# inline")
	assert.Contains(t, s, "memory: 1Gi")
	assert.Contains(t, s, "owner:\n  team: infra")

	assert.Error(t, d.Set("ports.x", 1), "sequences are not mappings")
}

func TestDelete(t *testing.T) {
	t.Parallel()
	d := load(t, sample)

	require.NoError(t, d.Delete("limits.cpu"))
	require.NoError(t, d.Delete("nope.nothing"))
	require.NoError(t, d.Delete("name"))

	var v map[string]any
	require.NoError(t, d.Decode(&v))
	assert.Equal(t, map[string]any{"ports": []any{80, 443}, "limits": map[string]any{}}, v)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	_, err := Format.Load([]byte("a: [1, 2"))
	assert.Error(t, err)

	d := load(t, "  \n")
	require.NoError(t, d.Set("a", 1))
	out, err := d.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(out))
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()
	d := load(t, sample)

	c := d.Clone().(*Document)
	require.NoError(t, c.Set("limits.cpu", 8))

	var cpu int
	require.NoError(t, d.Get("limits.cpu", &cpu))
	assert.Equal(t, 2, cpu)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	r := handler.NewRegistry()
	Register(r)

	for _, name := range []string{"a.yaml", "b.yml"} {
		sig := handler.Signature{Name: name, Kind: resource.KindFile}
		f := r.Resolve(sig)(sig).(*handler.File)
		assert.Equal(t, "yaml", f.Format().Name())
	}
}
