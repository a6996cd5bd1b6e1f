package pam

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/bodgit/swfbmp/bitmap"
)

// Largest raster Decode will allocate, the size of a 65535 by 65535 image.
const maxRasterSize = 65535 * 65535 * depth

// A FormatError reports that the input is not a valid PAM file.
type FormatError string

func (e FormatError) Error() string { return "pam: invalid format: " + string(e) }

// An UnsupportedError reports that the input uses a valid but unimplemented
// PAM feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "pam: unsupported feature: " + string(e) }

// Header is the parsed PAM header.
type Header struct {
	Width     int
	Height    int
	Depth     int
	MaxVal    int
	TupleType string
}

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == io.EOF {
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(line, "\r\n"), err
}

func parseUint(key, value string) (int, error) {
	n, err := strconv.ParseUint(value, 10, 31)
	if err != nil {
		return 0, FormatError(fmt.Sprintf("bad %s value %q", key, value))
	}
	return int(n), nil
}

func readHeader(r *bufio.Reader) (Header, error) {
	var h Header

	line, err := readLine(r)
	if err != nil {
		return h, err
	}
	if strings.TrimSpace(line) != magic {
		return h, FormatError("missing P7 signature")
	}

	seen := make(map[string]bool)
	var tupleTypes []string

	for {
		if line, err = readLine(r); err != nil {
			return h, err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		key := fields[0]
		if key == "ENDHDR" {
			break
		}
		if len(fields) < 2 {
			return h, FormatError("missing value for " + key)
		}
		value := strings.Join(fields[1:], " ")

		switch key {
		case "WIDTH":
			h.Width, err = parseUint(key, value)
		case "HEIGHT":
			h.Height, err = parseUint(key, value)
		case "DEPTH":
			h.Depth, err = parseUint(key, value)
		case "MAXVAL":
			h.MaxVal, err = parseUint(key, value)
		case "TUPLTYPE":
			tupleTypes = append(tupleTypes, value)
		default:
			return h, FormatError("unknown header field " + key)
		}
		if err != nil {
			return h, err
		}
		seen[key] = true
	}

	for _, key := range []string{"WIDTH", "HEIGHT", "DEPTH", "MAXVAL"} {
		if !seen[key] {
			return h, FormatError("missing " + key)
		}
	}
	if h.MaxVal < 1 || h.MaxVal > 65535 {
		return h, FormatError("MAXVAL out of range")
	}
	h.TupleType = strings.Join(tupleTypes, " ")

	return h, nil
}

// DecodeHeader reads and parses the PAM header from r.
func DecodeHeader(r io.Reader) (Header, error) {
	return readHeader(bufio.NewReader(r))
}

// Decode reads an RGB_ALPHA PAM image from r.
func Decode(r io.Reader) (*bitmap.Bitmap, error) {
	br := bufio.NewReader(r)

	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	switch {
	case h.Depth != depth:
		return nil, UnsupportedError(fmt.Sprintf("depth %d", h.Depth))
	case h.MaxVal != maxVal:
		return nil, UnsupportedError(fmt.Sprintf("maxval %d", h.MaxVal))
	case h.TupleType != tupleRGB:
		return nil, UnsupportedError(fmt.Sprintf("tuple type %q", h.TupleType))
	}

	if size := uint64(h.Width) * uint64(h.Height) * depth; size > maxRasterSize {
		return nil, FormatError(fmt.Sprintf("%dx%d image too large", h.Width, h.Height))
	}

	b := bitmap.New(uint32(h.Width), uint32(h.Height))
	if err := readFull(br, b.Data); err != nil {
		return nil, err
	}

	return b, nil
}

func decodeImage(r io.Reader) (image.Image, error) {
	b, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return b.Image(), nil
}

func decodeImageConfig(r io.Reader) (image.Config, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      h.Width,
		Height:     h.Height,
	}, nil
}

func init() {
	image.RegisterFormat("pam", magic+"\n", decodeImage, decodeImageConfig)
}
