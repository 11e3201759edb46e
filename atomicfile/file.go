package atomicfile

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrCancelled is returned by calls after Cancel()
	ErrCancelled = errors.New("atomicfile: cancelled")

	_ io.WriteCloser = &File{}
)

// File is written to a temporary file and renamed to its destination on Close
type File struct {
	dstPath string
	dir     string
	tmp     *os.File
	tmpPath string
	perm    fs.FileMode
	err     error
}

// New creates a File that will be saved as path with 0644 permissions
func New(path string) (*File, error) {
	return NewWithPerm(path, 0644)
}

// NewWithPerm is like New but with custom permissions
func NewWithPerm(path string, perm fs.FileMode) (*File, error) {
	dir, name := filepath.Split(path)
	if name == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return nil, err
	}
	return &File{
		dstPath: path,
		dir:     dir,
		tmp:     tmp,
		tmpPath: tmp.Name(),
		perm:    perm,
	}, nil
}

// the first error is sticky and causes the temp file to be removed
func (f *File) fail(err error) error {
	if err == nil {
		return nil
	}
	if f.err == nil {
		f.err = err
	}
	_ = f.Close()
	return err
}

func (f *File) Write(d []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmp.Write(d)
	return n, f.fail(err)
}

func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *File) closed() bool {
	return f.tmp == nil
}

// Cancel removes the temporary file without creating destination.
// Use with defer to clean up on early returns. No-op after Close.
func (f *File) Cancel() {
	if f == nil || f.closed() {
		return
	}
	f.err = ErrCancelled
	_ = f.Close()
}

// Close syncs the data and renames the temporary file to destination.
// It can be called multiple times and returns the first error.
func (f *File) Close() error {
	if f.closed() {
		return f.err
	}
	tmp := f.tmp
	f.tmp = nil

	errSync := tmp.Sync()
	errClose := tmp.Close()
	if f.err == nil {
		f.err = errors.Join(errSync, errClose)
	}
	if f.err == nil {
		f.err = os.Chmod(f.tmpPath, f.perm)
	}
	if f.err == nil {
		f.err = os.Rename(f.tmpPath, f.dstPath)
	}
	if f.err != nil {
		_ = os.Remove(f.tmpPath)
		return f.err
	}
	// make the rename durable, errors are not fatal
	if d, _ := os.Open(f.dir); d != nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// WriteFile is like os.WriteFile but atomic
func WriteFile(path string, data []byte, perm fs.FileMode) error {
	return WriteWith(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteWith calls fn to write the content of path atomically.
// If fn returns an error, path is not modified.
func WriteWith(path string, perm fs.FileMode, fn func(w io.Writer) error) error {
	f, err := NewWithPerm(path, perm)
	if err != nil {
		return err
	}
	defer f.Cancel()
	if err = fn(f); err != nil {
		return err
	}
	return f.Close()
}
