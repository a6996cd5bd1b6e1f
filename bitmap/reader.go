package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ErrShortHeader is returned when the stream ends inside the fixed header.
var ErrShortHeader = fmt.Errorf("x-swf-bmp: not enough header data: %w", io.ErrUnexpectedEOF)

// An UnsupportedFormatCodeError reports a format code other than 3.
type UnsupportedFormatCodeError uint8

func (e UnsupportedFormatCodeError) Error() string {
	return fmt.Sprintf("x-swf-bmp: unsupported format code: %d", uint8(e))
}

// A DecompressionError reports a payload that could not be inflated.
type DecompressionError struct {
	Err error
}

func (e *DecompressionError) Error() string {
	return "x-swf-bmp: decompression failed: " + e.Err.Error()
}

func (e *DecompressionError) Unwrap() error {
	return e.Err
}

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r io.Reader

	config Config

	// Inflated payload, palette followed by the index plane
	src []byte

	palette []uint32
	bitmap  *Bitmap
}

func (d *decoder) readHeader() error {
	var tmp [headerSize]byte

	// The format code is checked before anything else is read
	if err := readFull(d.r, tmp[:1]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return ErrShortHeader
	}
	if tmp[0] != FormatCode {
		return UnsupportedFormatCodeError(tmp[0])
	}

	if err := readFull(d.r, tmp[1:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return ErrShortHeader
	}

	width := uint32(binary.LittleEndian.Uint16(tmp[1:3]))
	height := uint32(binary.LittleEndian.Uint16(tmp[3:5]))

	d.config = Config{
		Meta: Meta{
			Width:  width,
			Height: height,
			Stride: int(width) * rgbaSize,
		},
		FormatCode:   tmp[0],
		PaletteCount: int(tmp[5]) + 1,
	}

	return nil
}

func (d *decoder) inflate() error {
	zr, err := zlib.NewReader(d.r)
	if err != nil {
		return &DecompressionError{Err: err}
	}
	defer zr.Close()

	if d.src, err = io.ReadAll(zr); err != nil {
		return &DecompressionError{Err: err}
	}
	return nil
}

// readPalette packs each RGB entry as 0xRRGGBBAA with an opaque alpha.
// Channels missing from a truncated payload read as zero.
func (d *decoder) readPalette() {
	d.palette = make([]uint32, d.config.PaletteCount)
	for i := range d.palette {
		var rgb [rgbSize]byte
		if o := i * rgbSize; o < len(d.src) {
			copy(rgb[:], d.src[o:])
		}
		d.palette[i] = uint32(rgb[0])<<24 | uint32(rgb[1])<<16 | uint32(rgb[2])<<8 | 0xff
	}
}

func (d *decoder) resolve(indices []byte, i int) uint32 {
	if i >= len(indices) {
		return fallbackColor
	}
	if ci := int(indices[i]); ci < len(d.palette) {
		return d.palette[ci]
	}
	return fallbackColor
}

func (d *decoder) readPixels() {
	width, height := int(d.config.Width), int(d.config.Height)

	// Index plane is a view over the inflated buffer, just past the palette
	var indices []byte
	if n := d.config.PaletteCount * rgbSize; n < len(d.src) {
		indices = d.src[n:]
	}

	srcStride := RowStride(width)

	d.bitmap = New(d.config.Width, d.config.Height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := d.resolve(indices, y*srcStride+x)
			binary.BigEndian.PutUint32(d.bitmap.Data[rgbaSize*(y*width+x):], c)
		}
	}
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	d.r = r

	if err := d.readHeader(); err != nil {
		return err
	}

	if configOnly {
		return nil
	}

	if err := d.inflate(); err != nil {
		return err
	}

	d.readPalette()
	d.readPixels()

	return nil
}

// Decode decodes an X-SWF-BMP stream into a bitmap.
//
// Pixels whose palette index is out of range, or lies beyond the end of the
// inflated payload, are set to opaque black rather than reported as an error.
func Decode(b []byte) (*Bitmap, error) {
	var d decoder
	if err := d.decode(bytes.NewReader(b), false); err != nil {
		return nil, err
	}
	return d.bitmap, nil
}

// DecodeConfig returns the header information of an X-SWF-BMP stream without
// inflating the payload.
func DecodeConfig(b []byte) (Config, error) {
	var d decoder
	if err := d.decode(bytes.NewReader(b), true); err != nil {
		return Config{}, err
	}
	return d.config, nil
}

func decodeImage(r io.Reader) (image.Image, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return m.Image(), nil
}

func decodeImageConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(d.config.Width),
		Height:     int(d.config.Height),
	}, nil
}

// IsUnsupported reports whether err is an UnsupportedFormatCodeError.
func IsUnsupported(err error) bool {
	var e UnsupportedFormatCodeError
	return errors.As(err, &e)
}

func init() {
	image.RegisterFormat("x-swf-bmp", "\x03", decodeImage, decodeImageConfig)
}
