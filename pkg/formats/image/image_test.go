package image

import (
	"bytes"
	stdimage "image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoad(t *testing.T) {
	t.Parallel()

	data := encodePNG(t, 4, 3)
	st, err := Format.Load(data)
	require.NoError(t, err)

	img := st.(*Image)
	assert.Equal(t, "png", img.Codec)
	w, h := img.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)

	out, err := img.Serialize()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestUnknownContentHasZeroSize(t *testing.T) {
	t.Parallel()

	st, err := Format.Load([]byte("not an image"))
	require.NoError(t, err)
	img := st.(*Image)
	w, h := img.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
	assert.Empty(t, img.Codec)
}

func TestSetDataAndClone(t *testing.T) {
	t.Parallel()

	img := Format.New().(*Image)
	img.SetData(encodePNG(t, 2, 2))
	assert.Equal(t, 2, img.Width)

	c := img.Clone().(*Image)
	c.SetData(nil)
	assert.Equal(t, 2, img.Width)
	assert.NotEmpty(t, img.Data)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	r := handler.NewRegistry()
	Register(r)

	for _, sig := range []handler.Signature{
		{Name: "photo.JPG", Kind: resource.KindFile},
		{Name: "upload", Kind: resource.KindFile, Tag: "image/gif"},
	} {
		f := r.Resolve(sig)(sig).(*handler.File)
		assert.Equal(t, "image", f.Format().Name())
	}
}
