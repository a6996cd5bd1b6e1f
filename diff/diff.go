/*
Package diff compares two bitmaps pixel by pixel.

The error of a pixel is the sum of the absolute differences of its four
channels. The comparison produces a diff bitmap covering the larger of the
two inputs where every pixel is painted according to its error.
*/
package diff

import (
	"image/color"

	"github.com/bodgit/swfbmp/bitmap"
)

// Error counted for a pixel present in only one of the bitmaps.
const oobError = 255 * 4

var (
	okColor   = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	warnColor = color.NRGBA{0xff, 0xff, 0x00, 0xff}
	errColor  = color.NRGBA{0xff, 0x00, 0x00, 0xff}
	oobColor  = color.NRGBA{0x00, 0x00, 0x00, 0xff}
)

// Options sets the per pixel error thresholds. A pixel with an error above
// Error is an error, above Warn a warning, anything else is fine.
type Options struct {
	Warn  uint32
	Error uint32
}

// DefaultOptions returns thresholds that flag any difference as a warning and
// differences above 10 as errors.
func DefaultOptions() *Options {
	return &Options{
		Warn:  0,
		Error: 10,
	}
}

// Comparison is the result of comparing two bitmaps.
type Comparison struct {
	Diff          *bitmap.Bitmap
	SameSize      bool
	Error         uint64
	RelativeError float64
}

// Equal reports whether both bitmaps had the same size and identical pixels.
func (c *Comparison) Equal() bool {
	return c.SameSize && c.Error == 0
}

func inBounds(b *bitmap.Bitmap, x, y int) bool {
	return x < int(b.Width) && y < int(b.Height)
}

func absDiff(a, b uint8) uint32 {
	if a > b {
		return uint32(a - b)
	}
	return uint32(b - a)
}

func comparePixel(a, e color.NRGBA) uint32 {
	return absDiff(a.R, e.R) + absDiff(a.G, e.G) + absDiff(a.B, e.B) + absDiff(a.A, e.A)
}

func maxUint32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// Compare compares actual against expected. A nil opts means DefaultOptions.
func Compare(actual, expected *bitmap.Bitmap, opts *Options) *Comparison {
	if opts == nil {
		opts = DefaultOptions()
	}

	width, height := maxUint32(actual.Width, expected.Width), maxUint32(actual.Height, expected.Height)

	c := &Comparison{
		Diff:     bitmap.New(width, height),
		SameSize: actual.Width == expected.Width && actual.Height == expected.Height,
	}

	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			if !inBounds(actual, x, y) || !inBounds(expected, x, y) {
				c.Error += oobError
				c.Diff.SetPixel(x, y, oobColor)
				continue
			}

			err := comparePixel(actual.Pixel(x, y), expected.Pixel(x, y))
			c.Error += uint64(err)

			switch {
			case err > opts.Error:
				c.Diff.SetPixel(x, y, errColor)
			case err > opts.Warn:
				c.Diff.SetPixel(x, y, warnColor)
			default:
				c.Diff.SetPixel(x, y, okColor)
			}
		}
	}

	if n := uint64(width) * uint64(height); n > 0 {
		c.RelativeError = float64(c.Error) / float64(n*oobError)
	}

	return c
}
