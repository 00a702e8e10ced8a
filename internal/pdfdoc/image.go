package pdfdoc

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"path"
	"strings"

	"github.com/Lllllllleong/yearbookflow/internal/layout"
)

// ImageFormat is the fpdf image type name.
type ImageFormat string

const (
	PNG  ImageFormat = "PNG"
	JPEG ImageFormat = "JPG"
)

// Image is an encoded raster ready to embed.
type Image struct {
	Name   string
	Data   []byte
	Format ImageFormat
}

// FormatOf picks the codec from the extension of ref, which may be a path or a URL.
// Query strings and fragments are ignored.
func FormatOf(ref string) (ImageFormat, error) {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	default:
		return "", fmt.Errorf("%q: %w", ref, ErrUnsupportedImage)
	}
}

// NewImage checks the format of ref and decodes the native pixel size of data.
func NewImage(ref string, data []byte) (Image, layout.Size, error) {
	format, err := FormatOf(ref)
	if err != nil {
		return Image{}, layout.Size{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, layout.Size{}, fmt.Errorf("failed to decode image %s: %w", ref, err)
	}
	img := Image{Name: ref, Data: data, Format: format}
	return img, layout.Size{W: float64(cfg.Width), H: float64(cfg.Height)}, nil
}
