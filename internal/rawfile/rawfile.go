// Package rawfile loads bundle, save and story files into memory for the
// byte-oriented codecs, mapping them read-only where the platform allows.
package rawfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrTooLarge is returned for files that cannot be addressed as one slice
// or exceed a caller's limit.
var ErrTooLarge = errors.New("rawfile: file too large")

// File is a loaded file. Data must not be modified and must not be used
// after Close.
type File struct {
	Path    string
	Data    []byte
	mmapped bool
}

// Open maps path read-only, falling back to reading it when mmap fails.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("rawfile: %s is not a regular file", path)
	}
	if st.Size() > math.MaxInt {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, st.Size())
	}
	size := int(st.Size())
	if size == 0 {
		return &File{Path: path, Data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &File{Path: path, Data: data, mmapped: true}, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, fmt.Errorf("rawfile: read %s: %w", path, err)
	}
	return &File{Path: path, Data: data}, nil
}

// OpenReaderAt copies size bytes from r without mapping.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < 0 || size > math.MaxInt {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return &File{Data: data}, nil
}

// Mapped reports whether Data is an mmap of the file.
func (f *File) Mapped() bool {
	return f != nil && f.mmapped
}

func (f *File) Close() error {
	if f == nil || !f.mmapped {
		return nil
	}
	data := f.Data
	f.Data, f.mmapped = nil, false
	return unix.Munmap(data)
}

// ReadFile returns a private copy of the file at path, refusing files larger
// than limit bytes when limit is positive.
func ReadFile(path string, limit int64) ([]byte, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	if limit > 0 && int64(len(f.Data)) > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, len(f.Data), limit)
	}
	if !f.mmapped {
		return f.Data, nil
	}
	out := make([]byte, len(f.Data))
	copy(out, f.Data)
	return out, nil
}

// WriteFile writes data to path through a temporary file in the same
// directory, so readers never see a partial file.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int
	for off < size {
		n, err := r.ReadAt(out[off:], int64(off))
		off += n
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) && off == size {
			break
		}
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return out, nil
}
