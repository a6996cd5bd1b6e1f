/*
Package bitmap implements a decoder for the X-SWF-BMP raster format.

X-SWF-BMP is the lossless bitmap payload embedded in SWF files. Only the
indexed palette variant, format code 3, is supported. The stream starts with
a fixed 6 byte header:

	offset  size  field
	0       1     format code, always 3
	1       2     width, little-endian
	3       2     height, little-endian
	5       1     palette count minus one

The rest of the stream is zlib-compressed. Once inflated it holds the palette
as 3 byte RGB entries followed by one index byte per pixel, each row padded on
the right to a multiple of 4 bytes.

Decoded bitmaps are stored as straight alpha RGBA, four bytes per pixel.
*/
package bitmap

import (
	"image"
	"image/color"
)

const (
	// FormatCode is the only supported format discriminator.
	FormatCode = 3

	headerSize   = 6
	rgbSize      = 3
	rgbaSize     = 4
	rowAlignment = 4

	// Pixels referencing a missing palette entry resolve to opaque black.
	fallbackColor uint32 = 0x000000ff
)

// Meta describes the dimensions of a bitmap.
type Meta struct {
	// Width in pixels
	Width uint32
	// Height in pixels
	Height uint32
	// Bytes per row, always at least Width * 4
	Stride int
}

// Bitmap is a decoded raster. Data holds Height rows of Stride bytes, each
// pixel stored as R, G, B, A.
type Bitmap struct {
	Meta
	Data []byte
}

// Config is the header information of an X-SWF-BMP stream.
type Config struct {
	Meta
	FormatCode   uint8
	PaletteCount int
}

// New returns a fully transparent bitmap with the given dimensions.
func New(width, height uint32) *Bitmap {
	stride := int(width) * rgbaSize
	return &Bitmap{
		Meta: Meta{
			Width:  width,
			Height: height,
			Stride: stride,
		},
		Data: make([]byte, stride*int(height)),
	}
}

// RowStride returns the length in bytes of a row of the index plane for an
// image of the given width.
func RowStride(width int) int {
	return width + (rowAlignment-width%rowAlignment)%rowAlignment
}

func (b *Bitmap) offset(x, y int) int {
	return y*b.Stride + x*rgbaSize
}

// Pixel returns the color at (x, y). Coordinates outside the bitmap return
// the zero color.
func (b *Bitmap) Pixel(x, y int) color.NRGBA {
	if x < 0 || y < 0 || x >= int(b.Width) || y >= int(b.Height) {
		return color.NRGBA{}
	}
	i := b.offset(x, y)
	return color.NRGBA{b.Data[i], b.Data[i+1], b.Data[i+2], b.Data[i+3]}
}

// SetPixel sets the color at (x, y). Coordinates outside the bitmap are
// ignored.
func (b *Bitmap) SetPixel(x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= int(b.Width) || y >= int(b.Height) {
		return
	}
	i := b.offset(x, y)
	b.Data[i], b.Data[i+1], b.Data[i+2], b.Data[i+3] = c.R, c.G, c.B, c.A
}

// Image returns an *image.NRGBA sharing the pixel buffer of b.
func (b *Bitmap) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Data,
		Stride: b.Stride,
		Rect:   image.Rect(0, 0, int(b.Width), int(b.Height)),
	}
}

// FromImage copies m into a new bitmap with its top-left corner at (0, 0).
func FromImage(m image.Image) *Bitmap {
	r := m.Bounds()
	b := New(uint32(r.Dx()), uint32(r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			// NRGBAModel passes straight alpha colors through untouched
			b.SetPixel(x-r.Min.X, y-r.Min.Y, color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA))
		}
	}
	return b
}
