package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageExts are the extensions of the registered decoders.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Decode decodes an encoded texture file. The format is sniffed from the
// data; TGA, which has no magic number, is selected by the file extension.
func Decode(name string, data []byte) (*Image, error) {
	var src image.Image
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, err
		}
		src = img
	} else {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			// Unrecognized contents behind a known image extension are a
			// damaged file, not an unsupported one.
			if errors.Is(err, image.ErrFormat) && !imageExts[strings.ToLower(filepath.Ext(name))] {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedTextureFormat, filepath.Ext(name))
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrTextureDecode, name, err)
		}
		src = img
	}
	return FromImage(src), nil
}

// FromImage converts any image.Image to packed 8-bit pixels. Grayscale images
// keep one channel, opaque images three, everything else four.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch s := src.(type) {
	case *image.Gray:
		img := &Image{Width: w, Height: h, BytesPerPixel: 1, Pix: make([]byte, w*h)}
		for y := 0; y < h; y++ {
			copy(img.Pix[y*w:], s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):][:w])
		}
		return img
	case *image.Gray16:
		img := &Image{Width: w, Height: h, BytesPerPixel: 1, Pix: make([]byte, w*h)}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Pix[y*w+x] = uint8(s.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return img
	}

	bpp := 4
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		bpp = 3
	}

	img := &Image{Width: w, Height: h, BytesPerPixel: bpp, Pix: make([]byte, w*h*bpp)}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = c.R, c.G, c.B
			if bpp == 4 {
				img.Pix[i+3] = c.A
			}
			i += bpp
		}
	}
	return img
}

// IsMagentaKey checks if an RGB color matches the magenta transparency key.
// Uses tolerance (R >= 250, G <= 10, B >= 250) to handle BMP decoding variations.
func IsMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// KeyMagenta returns a four-channel copy of img where magenta pixels are
// transparent black, preventing color bleeding during filtering.
// Images without color channels are returned unchanged.
func KeyMagenta(img *Image) *Image {
	if img.BytesPerPixel < 3 {
		return img
	}
	n := img.Width * img.Height
	out := &Image{Width: img.Width, Height: img.Height, BytesPerPixel: 4, Pix: make([]byte, n*4)}
	for p := 0; p < n; p++ {
		src := img.Pix[p*img.BytesPerPixel:]
		dst := out.Pix[p*4:]
		r, g, b := src[0], src[1], src[2]
		if IsMagentaKey(r, g, b) {
			continue
		}
		dst[0], dst[1], dst[2], dst[3] = r, g, b, 255
		if img.BytesPerPixel == 4 {
			dst[3] = src[3]
		}
	}
	return out
}
