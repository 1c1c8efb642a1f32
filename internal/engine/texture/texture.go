// Package texture provides image decoding and the texture store that owns
// decoded texture data for materials.
package texture

import (
	"errors"
	"fmt"
)

// Texture errors.
var (
	ErrUnsupportedTextureFormat = errors.New("unsupported texture format")
	ErrTextureDecode            = errors.New("texture decode failed")
	ErrNotFound                 = errors.New("texture not found")
)

// ID identifies a texture held by a Store. None means "no texture".
type ID uint32

// None is the zero ID, never assigned to a loaded texture.
const None ID = 0

// PixelLayout is the channel arrangement of an image, used to pick the GPU
// internal format.
type PixelLayout int

// Pixel layouts by channel count.
const (
	LayoutR PixelLayout = iota + 1
	LayoutRG
	LayoutRGB
	LayoutRGBA
)

func (l PixelLayout) String() string {
	switch l {
	case LayoutR:
		return "R"
	case LayoutRG:
		return "RG"
	case LayoutRGB:
		return "RGB"
	case LayoutRGBA:
		return "RGBA"
	default:
		return fmt.Sprintf("PixelLayout(%d)", int(l))
	}
}

// Image is decoded 8-bit pixel data with tightly packed rows and a top-left
// origin.
type Image struct {
	Width         int
	Height        int
	BytesPerPixel int
	Pix           []byte
}

// NewImage wraps raw pixels, checking the buffer size against the dimensions.
func NewImage(width, height, bytesPerPixel int, pix []byte) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrTextureDecode, width, height)
	}
	img := &Image{Width: width, Height: height, BytesPerPixel: bytesPerPixel, Pix: pix}
	if _, err := img.Layout(); err != nil {
		return nil, err
	}
	if want := width * height * bytesPerPixel; len(pix) != want {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrTextureDecode, want, len(pix))
	}
	return img, nil
}

// Layout maps the channel count to a pixel layout.
func (img *Image) Layout() (PixelLayout, error) {
	switch img.BytesPerPixel {
	case 1:
		return LayoutR, nil
	case 2:
		return LayoutRG, nil
	case 3:
		return LayoutRGB, nil
	case 4:
		return LayoutRGBA, nil
	default:
		return 0, fmt.Errorf("%w: %d bytes per pixel", ErrUnsupportedTextureFormat, img.BytesPerPixel)
	}
}

// Stride returns the byte length of one row.
func (img *Image) Stride() int {
	return img.Width * img.BytesPerPixel
}
