package texture

import (
	"fmt"
	"image"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeGray         = 3  // Uncompressed grayscale
	TGATypeRLE          = 10 // RLE compressed true-color
	TGATypeGrayRLE      = 11 // RLE compressed grayscale
)

const tgaHeaderSize = 18

// DecodeTGA decodes a TGA image file.
// Supports uncompressed and RLE compressed true-color (24/32 bit) and
// grayscale (8 bit) images. Grayscale files decode to *image.Gray, true-color
// files to *image.NRGBA.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("%w: TGA data too short", ErrTextureDecode)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped TGA", ErrUnsupportedTextureFormat)
	}

	var gray, rle bool
	switch imageType {
	case TGATypeUncompressed:
	case TGATypeRLE:
		rle = true
	case TGATypeGray:
		gray = true
	case TGATypeGrayRLE:
		gray, rle = true, true
	default:
		return nil, fmt.Errorf("%w: TGA type %d", ErrUnsupportedTextureFormat, imageType)
	}
	if gray && bpp != 8 {
		return nil, fmt.Errorf("%w: grayscale TGA bit depth %d", ErrUnsupportedTextureFormat, bpp)
	}
	if !gray && bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: TGA bit depth %d", ErrUnsupportedTextureFormat, bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: TGA size %dx%d", ErrTextureDecode, width, height)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: TGA data truncated", ErrTextureDecode)
	}

	bytesPerPixel := bpp / 8
	var pixels []byte
	var err error
	if rle {
		pixels, err = expandTGARLE(data[offset:], width*height, bytesPerPixel)
		if err != nil {
			return nil, err
		}
	} else {
		size := width * height * bytesPerPixel
		if len(data)-offset < size {
			return nil, fmt.Errorf("%w: TGA pixel data truncated", ErrTextureDecode)
		}
		pixels = data[offset : offset+size]
	}

	// Bit 5 of the descriptor marks top-to-bottom row order.
	topToBottom := descriptor&0x20 != 0
	destRow := func(y int) int {
		if topToBottom {
			return y
		}
		return height - 1 - y
	}

	if gray {
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(img.Pix[destRow(y)*img.Stride:], pixels[y*width:(y+1)*width])
		}
		return img, nil
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := img.Pix[destRow(y)*img.Stride:]
		for x := 0; x < width; x++ {
			src := pixels[(y*width+x)*bytesPerPixel:]
			dst := row[x*4:]
			// BGR(A) to RGBA
			dst[0], dst[1], dst[2] = src[2], src[1], src[0]
			dst[3] = 255
			if bytesPerPixel == 4 {
				dst[3] = src[3]
			}
		}
	}
	return img, nil
}

// expandTGARLE unpacks RLE packets into raw pixels in file order.
func expandTGARLE(data []byte, pixelCount, bytesPerPixel int) ([]byte, error) {
	out := make([]byte, 0, pixelCount*bytesPerPixel)
	i := 0
	for len(out) < cap(out) {
		if i >= len(data) {
			return nil, fmt.Errorf("%w: TGA RLE data truncated", ErrTextureDecode)
		}
		packet := data[i]
		i++
		count := int(packet&0x7F) + 1
		if remaining := (cap(out) - len(out)) / bytesPerPixel; count > remaining {
			count = remaining
		}

		if packet&0x80 != 0 {
			// run packet: one pixel repeated
			if i+bytesPerPixel > len(data) {
				return nil, fmt.Errorf("%w: TGA RLE data truncated", ErrTextureDecode)
			}
			px := data[i : i+bytesPerPixel]
			i += bytesPerPixel
			for n := 0; n < count; n++ {
				out = append(out, px...)
			}
		} else {
			size := count * bytesPerPixel
			if i+size > len(data) {
				return nil, fmt.Errorf("%w: TGA RLE data truncated", ErrTextureDecode)
			}
			out = append(out, data[i:i+size]...)
			i += size
		}
	}
	return out, nil
}
