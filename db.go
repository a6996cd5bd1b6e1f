package swfbmp

import (
	"crypto/sha1"
	"database/sql"
	"fmt"

	"github.com/bodgit/swfbmp/bitmap"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// BitmapDB caches decoded bitmaps keyed by the SHA-1 of their X-SWF-BMP
// stream. Rasters are stored zstd compressed.
type BitmapDB struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewBitmapDB opens, creating if necessary, the sqlite database in file.
func NewBitmapDB(file string) (*BitmapDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS bitmap (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, raster BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithZeroFrames(true))
	if err != nil {
		db.Close()
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &BitmapDB{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Close closes the database.
func (db *BitmapDB) Close() error {
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		db.db.Close()
		return err
	}
	return db.db.Close()
}

// Checksum returns the key used for the X-SWF-BMP stream b.
func Checksum(b []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(b))
}

// Store saves the bitmap m under sha. An existing entry is left untouched.
func (db *BitmapDB) Store(sha string, m *bitmap.Bitmap) error {
	raster := db.enc.EncodeAll(packed(m), nil)
	if _, err := db.db.Exec("INSERT OR IGNORE INTO bitmap (sha1, width, height, raster) VALUES (?, ?, ?, ?)", sha, m.Width, m.Height, raster); err != nil {
		return err
	}
	return nil
}

// FindBySHA1 returns the bitmap stored under sha, or nil if there isn't one.
func (db *BitmapDB) FindBySHA1(sha string) (*bitmap.Bitmap, error) {
	var width, height uint32
	var raster []byte
	switch err := db.db.QueryRow("SELECT width, height, raster FROM bitmap WHERE sha1 = ?", sha).Scan(&width, &height, &raster); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		m := bitmap.New(width, height)
		data, err := db.dec.DecodeAll(raster, make([]byte, 0, len(m.Data)))
		if err != nil {
			return nil, err
		}
		if len(data) != len(m.Data) {
			return nil, fmt.Errorf("bitmap %s: raster is %d bytes, expected %d", sha, len(data), len(m.Data))
		}
		m.Data = data
		return m, nil
	default:
		return nil, err
	}
}

// Import decodes the X-SWF-BMP stream b and stores it, returning its key.
func (db *BitmapDB) Import(b []byte) (string, error) {
	sha := Checksum(b)

	var id int64
	switch err := db.db.QueryRow("SELECT id FROM bitmap WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		m, err := bitmap.Decode(b)
		if err != nil {
			return "", err
		}
		if err := db.Store(sha, m); err != nil {
			return "", err
		}
		return sha, nil
	case nil:
		return sha, nil
	default:
		return "", err
	}
}

// Count returns the number of cached bitmaps.
func (db *BitmapDB) Count() (int, error) {
	var n int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM bitmap").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// packed returns the raster of m without any row padding.
func packed(m *bitmap.Bitmap) []byte {
	row := int(m.Width) * 4
	if m.Stride == row {
		return m.Data[:row*int(m.Height)]
	}
	b := make([]byte, 0, row*int(m.Height))
	for y := 0; y < int(m.Height); y++ {
		b = append(b, m.Data[y*m.Stride:y*m.Stride+row]...)
	}
	return b
}
