/*
Package pam implements a PAM (portable arbitrary map) encoder and decoder for
bitmaps.

Only the RGB_ALPHA tuple type with a depth of 4 and a maximum value of 255 is
written. The header is plain text:

	P7
	WIDTH <w>
	HEIGHT <h>
	DEPTH 4
	MAXVAL 255
	TUPLTYPE RGB_ALPHA
	ENDHDR

followed by the raw RGBA bytes, row by row.

See http://netpbm.sourceforge.net/doc/pam.html
*/
package pam

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bodgit/swfbmp/bitmap"
)

const (
	magic    = "P7"
	depth    = 4
	maxVal   = 255
	tupleRGB = "RGB_ALPHA"
)

func header(b *bitmap.Bitmap) []byte {
	return []byte(fmt.Sprintf("%s\nWIDTH %d\nHEIGHT %d\nDEPTH %d\nMAXVAL %d\nTUPLTYPE %s\nENDHDR\n",
		magic, b.Width, b.Height, depth, maxVal, tupleRGB))
}

// Encode writes the bitmap b to w in PAM format.
func Encode(w io.Writer, b *bitmap.Bitmap) error {
	if _, err := w.Write(header(b)); err != nil {
		return err
	}

	row := int(b.Width) * depth
	if b.Stride == row {
		_, err := w.Write(b.Data[:row*int(b.Height)])
		return err
	}

	for y := 0; y < int(b.Height); y++ {
		if _, err := w.Write(b.Data[y*b.Stride : y*b.Stride+row]); err != nil {
			return err
		}
	}

	return nil
}

// Marshal returns the bitmap b encoded in PAM format as a new buffer.
func Marshal(b *bitmap.Bitmap) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(int(b.Width) * int(b.Height) * depth)
	// Writes to a bytes.Buffer never fail
	_ = Encode(buf, b)
	return buf.Bytes()
}
