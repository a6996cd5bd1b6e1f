package swfbmp

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/swfbmp/bitmap"
	"github.com/bodgit/swfbmp/pam"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/bmp"
)

// Format is an output image format.
type Format int

// Supported output formats.
const (
	FormatPAM Format = iota
	FormatPNG
	FormatGIF
	FormatBMP
)

var formatNames = []string{
	FormatPAM: "pam",
	FormatPNG: "png",
	FormatGIF: "gif",
	FormatBMP: "bmp",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// Extension returns the filename extension, including the dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// ParseFormat returns the format with the given name.
func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if strings.EqualFold(s, name) {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// FormatFromExtension returns the format implied by the extension of file.
func FormatFromExtension(file string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(file), "."))
}

// paletted returns m as an *image.Paletted when it uses no more than 256
// distinct colors, otherwise nil.
func paletted(m *bitmap.Bitmap) *image.Paletted {
	p := image.NewPaletted(image.Rect(0, 0, int(m.Width), int(m.Height)), nil)
	index := make(map[color.NRGBA]uint8)
	for y := 0; y < int(m.Height); y++ {
		for x := 0; x < int(m.Width); x++ {
			c := m.Pixel(x, y)
			i, ok := index[c]
			if !ok {
				if len(p.Palette) == 256 {
					return nil
				}
				i = uint8(len(p.Palette))
				index[c] = i
				p.Palette = append(p.Palette, c)
			}
			p.SetColorIndex(x, y, i)
		}
	}
	return p
}

// WriteImage writes the bitmap m to w in format f.
func WriteImage(w io.Writer, m *bitmap.Bitmap, f Format) error {
	switch f {
	case FormatPAM:
		return pam.Encode(w, m)
	case FormatPNG:
		return png.Encode(w, m.Image())
	case FormatGIF:
		if p := paletted(m); p != nil {
			return gif.Encode(w, p, nil)
		}
		// The decoder can emit 256 palette colors plus the black fallback
		return gif.Encode(w, m.Image(), &gif.Options{
			NumColors: 256,
			Quantizer: quantize.MedianCutQuantizer{},
		})
	case FormatBMP:
		return bmp.Encode(w, m.Image())
	default:
		return fmt.Errorf("unsupported output format %s", f)
	}
}
