// Package image provides the raster image format. The state keeps the raw
// bytes and the decoded dimensions; content that no registered decoder
// recognises is kept with a zero size rather than rejected.
package image

import (
	"bytes"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"slices"

	"github.com/nkhine/itools/pkg/handler"
)

// Format parses raster images.
var Format handler.Format = format{}

// Suffixes are the file name suffixes registered for images.
var Suffixes = []string{".png", ".jpg", ".jpeg", ".gif"}

// MIMETypes are the tags registered for images.
var MIMETypes = []string{"image/png", "image/jpeg", "image/gif"}

type format struct{}

func (format) Name() string { return "image" }

func (format) New() handler.State { return &Image{} }

func (format) Load(data []byte) (handler.State, error) {
	img := &Image{Data: slices.Clone(data)}
	img.decode()
	return img, nil
}

// Register binds the image format to its suffixes and MIME types.
func Register(r *handler.Registry) {
	f := handler.FileFactory(Format)
	for _, s := range Suffixes {
		r.Register(handler.Suffix(s), f)
	}
	for _, t := range MIMETypes {
		r.Register(handler.Tag(t), f)
	}
}

// Image is the state of an image file.
type Image struct {
	Data []byte

	// Codec is the decoder name ("png", "jpeg", "gif"), empty when unknown.
	Codec  string
	Width  int
	Height int
}

func (i *Image) decode() {
	cfg, codec, err := image.DecodeConfig(bytes.NewReader(i.Data))
	if err != nil {
		i.Codec, i.Width, i.Height = "", 0, 0
		return
	}
	i.Codec, i.Width, i.Height = codec, cfg.Width, cfg.Height
}

// Size returns the width and height in pixels, (0, 0) when unknown.
func (i *Image) Size() (int, int) { return i.Width, i.Height }

// SetData replaces the image bytes and recomputes the size.
func (i *Image) SetData(data []byte) {
	i.Data = slices.Clone(data)
	i.decode()
}

func (i *Image) Serialize() ([]byte, error) { return slices.Clone(i.Data), nil }

func (i *Image) Clone() handler.State {
	c := *i
	c.Data = slices.Clone(i.Data)
	return &c
}
