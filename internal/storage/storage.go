// Package storage is the SD-card collaborator: one file per image, a
// two-byte dimension header followed by the raw RGB payload. Failures carry
// typed codes so the dispatcher can reply without interpreting OS errors.
package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/store"
)

// Code classifies a storage failure, mirroring the on-device error set.
type Code uint8

const (
	OK Code = iota
	NotInitialized
	NotFound
	OpenFailed
	ReadFailed
	WriteFailed
	InvalidFormat
	InvalidFilename
	DiskFull
)

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case NotInitialized:
		return "not initialized"
	case NotFound:
		return "not found"
	case OpenFailed:
		return "open failed"
	case ReadFailed:
		return "read failed"
	case WriteFailed:
		return "write failed"
	case InvalidFormat:
		return "invalid format"
	case InvalidFilename:
		return "invalid filename"
	case DiskFull:
		return "disk full"
	default:
		return "unknown"
	}
}

// Error is a storage failure with its code.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage: %s: %v", e.Code, e.Err)
	}
	return "storage: " + e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

func fail(c Code, err error) *Error { return &Error{Code: c, Err: err} }

// MaxFilename bounds image names; names carry no extension on the wire.
const MaxFilename = 32

const fileExt = ".pov"

// Store keeps images under a single directory.
type Store struct {
	dir string
	log zerolog.Logger
}

// New creates the image directory if needed.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fail(NotInitialized, err)
	}
	return &Store{dir: dir, log: log}, nil
}

func validName(name string) bool {
	if len(name) == 0 || len(name) > MaxFilename {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Save writes an image file: [width:1][height:1] then width*height*3 RGB
// bytes in the stored column-major order.
func (s *Store) Save(name string, im *store.Image) error {
	if !validName(name) {
		return fail(InvalidFilename, nil)
	}
	buf := make([]byte, 2+im.Width*im.Height*3)
	buf[0] = byte(im.Width)
	buf[1] = byte(im.Height)
	copy(buf[2:], im.Data[:im.Width*im.Height*3])
	if err := os.WriteFile(s.path(name), buf, 0o644); err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("image save failed")
		return fail(WriteFailed, err)
	}
	return nil
}

// Load reads an image file back into a stored image.
func (s *Store) Load(name string) (*store.Image, error) {
	if !validName(name) {
		return nil, fail(InvalidFilename, nil)
	}
	b, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fail(NotFound, err)
		}
		return nil, fail(ReadFailed, err)
	}
	if len(b) < 2 {
		return nil, fail(InvalidFormat, nil)
	}
	w, h := int(b[0]), int(b[1])
	if w <= 0 || w > store.DisplayWidth || h <= 0 || h > store.MaxImageHeight {
		return nil, fail(InvalidFormat, nil)
	}
	if len(b) != 2+w*h*3 {
		return nil, fail(InvalidFormat, nil)
	}
	im := &store.Image{Width: w, Height: h}
	copy(im.Data[:], b[2:])
	return im, nil
}

// Delete removes an image file.
func (s *Store) Delete(name string) error {
	if !validName(name) {
		return fail(InvalidFilename, nil)
	}
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fail(NotFound, err)
		}
		return fail(WriteFailed, err)
	}
	return nil
}

// List returns stored image names, sorted, without extensions.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fail(ReadFailed, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if filepath.Ext(n) != fileExt {
			continue
		}
		names = append(names, n[:len(n)-len(fileExt)])
	}
	sort.Strings(names)
	return names, nil
}

// Info returns an image's dimensions and file size without loading pixels.
func (s *Store) Info(name string) (width, height int, size int64, err error) {
	if !validName(name) {
		return 0, 0, 0, fail(InvalidFilename, nil)
	}
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, 0, fail(NotFound, err)
		}
		return 0, 0, 0, fail(OpenFailed, err)
	}
	defer f.Close()
	var hdr [2]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, 0, 0, fail(InvalidFormat, err)
		}
		return 0, 0, 0, fail(ReadFailed, err)
	}
	var fi fs.FileInfo
	if fi, err = f.Stat(); err != nil {
		return 0, 0, 0, fail(ReadFailed, err)
	}
	return int(hdr[0]), int(hdr[1]), fi.Size(), nil
}
