package pam

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/bodgit/swfbmp/bitmap"
	"github.com/bodgit/swfbmp/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoByOneHeader = "P7\nWIDTH 2\nHEIGHT 1\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n"

func decoded(t *testing.T) *bitmap.Bitmap {
	b, err := bitmap.Decode(fixture.Indexed(2, 1, [][3]byte{{0xff, 0, 0}}, []byte{0, 7, 0, 0}))
	require.NoError(t, err)
	return b
}

func TestMarshal(t *testing.T) {
	want := append([]byte(twoByOneHeader), 0xff, 0, 0, 0xff, 0, 0, 0, 0xff)
	assert.Equal(t, want, Marshal(decoded(t)))
}

func TestMarshalFreshBuffer(t *testing.T) {
	b := decoded(t)
	out := Marshal(b)
	out[len(out)-1] = 0

	assert.Equal(t, byte(0xff), b.Data[len(b.Data)-1])
	assert.NotEqual(t, out, Marshal(b))
}

func TestEncodeWideStride(t *testing.T) {
	b := &bitmap.Bitmap{
		Meta: bitmap.Meta{
			Width:  1,
			Height: 2,
			Stride: 8,
		},
		Data: []byte{
			1, 2, 3, 4, 0xee, 0xee, 0xee, 0xee,
			5, 6, 7, 8, 0xee, 0xee, 0xee, 0xee,
		},
	}

	buf := new(bytes.Buffer)
	require.NoError(t, Encode(buf, b))

	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("ENDHDR\n\x01\x02\x03\x04\x05\x06\x07\x08")))
}

func TestRoundTripHeader(t *testing.T) {
	for _, size := range [][2]uint16{{0, 0}, {0, 3}, {2, 1}, {13, 7}} {
		raw := fixture.Indexed(size[0], size[1], [][3]byte{{1, 2, 3}}, make([]byte, bitmap.RowStride(int(size[0]))*int(size[1])))
		b, err := bitmap.Decode(raw)
		require.NoError(t, err)

		h, err := DecodeHeader(bytes.NewReader(Marshal(b)))
		require.NoError(t, err)

		assert.Equal(t, Header{
			Width:     int(size[0]),
			Height:    int(size[1]),
			Depth:     4,
			MaxVal:    255,
			TupleType: "RGB_ALPHA",
		}, h)
	}
}

func TestRoundTrip(t *testing.T) {
	b := decoded(t)

	got, err := Decode(bytes.NewReader(Marshal(b)))
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestDecodeHeaderComments(t *testing.T) {
	in := "P7\n# made by hand\nWIDTH 3\n\nHEIGHT 4\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB\nTUPLTYPE _ALPHA\nENDHDR\n"

	h, err := DecodeHeader(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, h.Width)
	assert.Equal(t, 4, h.Height)
	assert.Equal(t, "RGB _ALPHA", h.TupleType)
}

func TestDecodeErrors(t *testing.T) {
	tables := map[string]struct {
		in  string
		err error
	}{
		"empty":        {"", io.ErrUnexpectedEOF},
		"bad magic":    {"P6\n", FormatError("missing P7 signature")},
		"no ENDHDR":    {"P7\nWIDTH 1\n", io.ErrUnexpectedEOF},
		"bad width":    {"P7\nWIDTH -1\n", FormatError(`bad WIDTH value "-1"`)},
		"unknown key":  {"P7\nFOO 1\n", FormatError("unknown header field FOO")},
		"no value":     {"P7\nWIDTH\n", FormatError("missing value for WIDTH")},
		"missing":      {"P7\nWIDTH 1\nENDHDR\n", FormatError("missing HEIGHT")},
		"depth":        {"P7\nWIDTH 1\nHEIGHT 1\nDEPTH 3\nMAXVAL 255\nTUPLTYPE RGB\nENDHDR\n", UnsupportedError("depth 3")},
		"maxval":       {"P7\nWIDTH 1\nHEIGHT 1\nDEPTH 4\nMAXVAL 65535\nTUPLTYPE RGB_ALPHA\nENDHDR\n", UnsupportedError("maxval 65535")},
		"tuple type":   {"P7\nWIDTH 1\nHEIGHT 1\nDEPTH 4\nMAXVAL 255\nTUPLTYPE CMYK\nENDHDR\n", UnsupportedError(`tuple type "CMYK"`)},
		"short pixels": {twoByOneHeader + "\x01\x02\x03", io.ErrUnexpectedEOF},
		"too large":    {"P7\nWIDTH 2147483647\nHEIGHT 2147483647\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n", FormatError("2147483647x2147483647 image too large")},
		"too tall":     {"P7\nWIDTH 65536\nHEIGHT 65535\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n", FormatError("65536x65535 image too large")},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(table.in))
			assert.Equal(t, table.err, err)
		})
	}
}

func TestImageDecodeTooLarge(t *testing.T) {
	in := "P7\nWIDTH 2147483647\nHEIGHT 2147483647\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n"

	_, _, err := image.Decode(strings.NewReader(in))
	assert.Equal(t, FormatError("2147483647x2147483647 image too large"), err)
}

func TestImageDecode(t *testing.T) {
	m, format, err := image.Decode(bytes.NewReader(Marshal(decoded(t))))
	require.NoError(t, err)
	assert.Equal(t, "pam", format)
	assert.Equal(t, color.NRGBA{0xff, 0, 0, 0xff}, m.At(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 0, 0xff}, m.At(1, 0))
}
