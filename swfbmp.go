/*
Package swfbmp is a library for converting the X-SWF-BMP bitmaps found in SWF
files into common image formats.

Decoded bitmaps are cached in a sqlite database so that converting the same
stream again does not need to inflate it.
*/
package swfbmp

import (
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/bodgit/swfbmp/bitmap"
)

// Extension is the filename extension of X-SWF-BMP files.
const Extension = ".xswfbmp"

type Converter struct {
	db     *BitmapDB
	logger *log.Logger
}

// New returns a Converter using the cache database in file.
func New(file string, logger *log.Logger) (*Converter, error) {
	db, err := NewBitmapDB(file)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Converter{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the cache database.
func (c *Converter) Close() error {
	return c.db.Close()
}

// Decode reads and decodes the X-SWF-BMP file, using the cache when
// possible.
func (c *Converter) Decode(file string) (*bitmap.Bitmap, error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	sha := Checksum(b)

	m, err := c.db.FindBySHA1(sha)
	if err != nil {
		return nil, err
	}
	if m != nil {
		c.logger.Printf("Using cached bitmap for \"%s\"\n", file)
		return m, nil
	}

	if m, err = bitmap.Decode(b); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	if err := c.db.Store(sha, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Convert decodes the X-SWF-BMP file in and writes it to out, using the
// format implied by the extension of out.
func (c *Converter) Convert(in, out string) error {
	format, err := FormatFromExtension(out)
	if err != nil {
		return err
	}

	m, err := c.Decode(in)
	if err != nil {
		return err
	}

	return WriteFile(out, m, format)
}

// Import stores the decoded X-SWF-BMP files in the cache.
func (c *Converter) Import(files ...string) error {
	for _, file := range files {
		b, err := ioutil.ReadFile(file)
		if err != nil {
			return err
		}

		sha, err := c.db.Import(b)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		c.logger.Printf("Imported \"%s\" as %s\n", file, sha)
	}
	return nil
}

// WriteFile creates file and writes m to it in format, reporting any error
// from closing the file.
func WriteFile(file string, m *bitmap.Bitmap, format Format) (err error) {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return WriteImage(f, m, format)
}

// IsDecodeError reports whether err was caused by a malformed X-SWF-BMP
// stream rather than an I/O or database failure.
func IsDecodeError(err error) bool {
	var de *bitmap.DecompressionError
	return bitmap.IsUnsupported(err) || errors.As(err, &de) || errors.Is(err, bitmap.ErrShortHeader)
}
