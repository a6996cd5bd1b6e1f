// Package fixture builds X-SWF-BMP streams for tests.
package fixture

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zlib"
)

// Compress returns b as a zlib stream.
func Compress(b []byte) []byte {
	buf := new(bytes.Buffer)
	zw := zlib.NewWriter(buf)
	if _, err := zw.Write(b); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Raw returns a header followed by payload verbatim.
func Raw(code byte, width, height uint16, paletteCountMinusOne byte, payload []byte) []byte {
	var h [6]byte
	h[0] = code
	binary.LittleEndian.PutUint16(h[1:3], width)
	binary.LittleEndian.PutUint16(h[3:5], height)
	h[5] = paletteCountMinusOne
	return append(h[:], payload...)
}

// Indexed returns a format code 3 stream. palette holds RGB triplets and
// indices the already padded index plane.
func Indexed(width, height uint16, palette [][3]byte, indices []byte) []byte {
	var plain []byte
	for _, c := range palette {
		plain = append(plain, c[:]...)
	}
	plain = append(plain, indices...)
	return Raw(3, width, height, byte(len(palette)-1), Compress(plain))
}
