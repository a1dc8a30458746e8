package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/formats/json"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
	"github.com/nkhine/itools/pkg/resource/memory"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	tests := []struct {
		sig  handler.Signature
		want string
	}{
		{handler.Signature{Name: "a.txt", Kind: resource.KindFile}, "text"},
		{handler.Signature{Name: "a.json", Kind: resource.KindFile}, "json"},
		{handler.Signature{Name: "a.yml", Kind: resource.KindFile}, "yaml"},
		{handler.Signature{Name: "a.toml", Kind: resource.KindFile}, "toml"},
		{handler.Signature{Name: "a.png", Kind: resource.KindFile}, "image"},
		{handler.Signature{Name: "a.bin", Kind: resource.KindFile}, "opaque"},
		{handler.Signature{Name: "a.bin", Kind: resource.KindFile, Tag: json.MIMEType}, "json"},
	}
	for _, tt := range tests {
		f, ok := r.Resolve(tt.sig)(tt.sig).(*handler.File)
		require.True(t, ok, tt.sig.Name)
		assert.Equal(t, tt.want, f.Format().Name(), "%+v", tt.sig)
	}
}

func TestTreeEditsJSONDocument(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	store := memory.New()
	f, err := store.Root().Create(ctx, "settings.json", resource.KindFile)
	require.NoError(t, err)
	require.NoError(t, f.Write(ctx, []byte(`{"theme":"dark"}`)))

	sess := handler.NewSession(handler.WithRegistry(NewRegistry()))
	root := sess.OpenFolder(store.Root())

	n, err := root.GetHandler(ctx, "settings.json")
	require.NoError(t, err)
	file := n.(*handler.File)

	require.NoError(t, file.Update(ctx, func(s handler.State) error {
		return s.(*json.Document).Set("font.size", 14)
	}))
	require.NoError(t, sess.Commit(ctx))

	data, err := f.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark","font":{"size":14}}`, string(data))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"image", "json", "text", "toml", "yaml"}, Names())
	for _, name := range Names() {
		f, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, f.Name())
	}

	_, ok := Lookup("xml")
	assert.False(t, ok)
}
