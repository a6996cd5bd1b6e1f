package swfbmp

import (
	"bytes"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/swfbmp/bitmap"
	"github.com/bodgit/swfbmp/internal/fixture"
	"github.com/bodgit/swfbmp/pam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConverter(t *testing.T, logger *log.Logger) *Converter {
	c, err := New(filepath.Join(t.TempDir(), "cache.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, c.Close())
	})
	return c
}

func writeTestFile(t *testing.T, file string, b []byte) {
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, ioutil.WriteFile(file, b, 0644))
}

func TestConvert(t *testing.T) {
	buf := new(bytes.Buffer)
	c := newTestConverter(t, log.New(buf, "", 0))
	dir := t.TempDir()

	raw := fixture.Indexed(2, 1, [][3]byte{{0xff, 0, 0}}, []byte{0, 7, 0, 0})
	in := filepath.Join(dir, "sample"+Extension)
	writeTestFile(t, in, raw)

	out := filepath.Join(dir, "sample.pam")
	require.NoError(t, c.Convert(in, out))

	b, err := ioutil.ReadFile(out)
	require.NoError(t, err)

	want, err := bitmap.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, pam.Marshal(want), b)

	// Second conversion is served from the cache
	require.NoError(t, c.Convert(in, filepath.Join(dir, "again.pam")))
	assert.Contains(t, buf.String(), "Using cached bitmap")

	assert.Error(t, c.Convert(in, filepath.Join(dir, "sample.jpg")))
}

func TestConvertInvalid(t *testing.T) {
	c := newTestConverter(t, nil)
	dir := t.TempDir()

	in := filepath.Join(dir, "bad"+Extension)
	writeTestFile(t, in, fixture.Raw(5, 1, 1, 0, nil))

	err := c.Convert(in, filepath.Join(dir, "bad.png"))
	assert.True(t, IsDecodeError(err))
	assert.True(t, bitmap.IsUnsupported(err))

	_, err = c.Decode(filepath.Join(dir, "missing"+Extension))
	assert.True(t, os.IsNotExist(err))
	assert.False(t, IsDecodeError(err))
}

func TestImport(t *testing.T) {
	c := newTestConverter(t, nil)
	dir := t.TempDir()

	a := filepath.Join(dir, "a"+Extension)
	b := filepath.Join(dir, "b"+Extension)
	writeTestFile(t, a, fixture.Indexed(1, 1, [][3]byte{{1, 2, 3}}, []byte{0, 0, 0, 0}))
	writeTestFile(t, b, fixture.Indexed(1, 1, [][3]byte{{4, 5, 6}}, []byte{0, 0, 0, 0}))

	require.NoError(t, c.Import(a, b, a))

	n, err := c.db.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	bad := filepath.Join(dir, "bad"+Extension)
	writeTestFile(t, bad, fixture.Raw(3, 1, 1, 0, []byte{1, 2, 3}))
	assert.True(t, IsDecodeError(c.Import(bad)))
}
