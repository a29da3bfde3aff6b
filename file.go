package bootfat

import (
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/aligator/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrFlushFile = errors.New("could not write the file to the volume")
)

// fileFs provides all methods needed from the volume for File.
// It mainly exists to be able to mock the Volume in tests.
// Generated mock using mockgen:
//  mockgen -source=file.go -destination=file_mock.go -package bootfat
type fileFs interface {
	WriteFile(path string, data []byte) error
}

// File is an afero.File over a bootfat Volume.
//
// A read File holds the full file content, fetched once on open; a write
// File buffers everything in memory and performs the single-shot engine
// write on Close or Sync. Directories hold their entry listing.
type File struct {
	fs   fileFs
	path string

	isDirectory bool
	writable    bool
	closed      bool

	data      []byte
	entries   []os.FileInfo
	stat      os.FileInfo
	offset    int64
	dirOffset int
}

// Close flushes a writable file to the volume and invalidates the handle.
func (f *File) Close() error {
	if f.closed {
		return afero.ErrFileClosed
	}
	f.closed = true

	if f.writable {
		if err := f.fs.WriteFile(f.path, f.data); err != nil {
			return checkpoint.Wrap(err, ErrFlushFile)
		}
	}

	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if f.closed {
		return 0, afero.ErrFileClosed
	}
	if f.isDirectory {
		return 0, syscall.EISDIR
	}

	if f.offset >= int64(len(f.data)) {
		return 0, io.EOF
	}

	n = copy(p, f.data[f.offset:])
	f.offset += int64(n)

	return n, nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if f.closed {
		return 0, afero.ErrFileClosed
	}
	if f.isDirectory {
		return 0, syscall.EISDIR
	}

	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}

	n = copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read and
// Write operations except ReadAt and WriteAt.
// Returns syscall.EINVAL if the whence value is invalid and
// afero.ErrOutOfRange if the resulting offset is negative.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, afero.ErrFileClosed
	}

	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = f.offset + offset
	case io.SeekEnd:
		next = int64(len(f.data)) + offset
	default:
		return 0, syscall.EINVAL
	}

	if next < 0 {
		return 0, afero.ErrOutOfRange
	}

	f.offset = next

	return next, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	n, err = f.WriteAt(p, f.offset)
	f.offset += int64(n)

	return n, err
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	if f.closed {
		return 0, afero.ErrFileClosed
	}
	if !f.writable {
		return 0, syscall.EPERM
	}

	if need := off + int64(len(p)); need > int64(len(f.data)) {
		grown := make([]byte, need)
		copy(grown, f.data)
		f.data = grown
	}

	return copy(f.data[off:], p), nil
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}

func (f *File) Name() string {
	return f.path
}

// Readdir lists the directory. With count > 0 it returns batches of at most
// count entries and io.EOF once the listing is exhausted, with count <= 0
// it returns all remaining entries at once.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if f.closed {
		return nil, afero.ErrFileClosed
	}
	if !f.isDirectory {
		return nil, syscall.ENOTDIR
	}

	remaining := f.entries[f.dirOffset:]

	if count <= 0 {
		f.dirOffset = len(f.entries)
		return append([]os.FileInfo(nil), remaining...), nil
	}

	if len(remaining) == 0 {
		return nil, io.EOF
	}

	if count > len(remaining) {
		count = len(remaining)
	}
	f.dirOffset += count

	return append([]os.FileInfo(nil), remaining[:count]...), nil
}

func (f *File) Readdirnames(n int) ([]string, error) {
	infos, err := f.Readdir(n)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}

	return names, nil
}

func (f *File) Stat() (os.FileInfo, error) {
	if f.stat != nil {
		return f.stat, nil
	}

	// A file opened for writing has no on-disk entry yet.
	return memFileInfo{
		name:    baseName(f.path),
		size:    int64(len(f.data)),
		modTime: time.Time{},
		dir:     f.isDirectory,
	}, nil
}

// Sync writes a writable file to the volume without closing it.
func (f *File) Sync() error {
	if f.closed {
		return afero.ErrFileClosed
	}
	if !f.writable {
		return nil
	}

	if err := f.fs.WriteFile(f.path, f.data); err != nil {
		return checkpoint.Wrap(err, ErrFlushFile)
	}

	return nil
}

func (f *File) Truncate(size int64) error {
	if f.closed {
		return afero.ErrFileClosed
	}
	if !f.writable {
		return syscall.EPERM
	}

	if size <= int64(len(f.data)) {
		f.data = f.data[:size]
		return nil
	}

	grown := make([]byte, size)
	copy(grown, f.data)
	f.data = grown

	return nil
}

// memFileInfo describes a file that has no on-disk entry, like a not yet
// flushed write buffer or the root directory.
type memFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	dir     bool
}

func (m memFileInfo) Name() string { return m.name }
func (m memFileInfo) Size() int64  { return m.size }
func (m memFileInfo) Mode() os.FileMode {
	if m.dir {
		return os.ModeDir
	}
	return 0
}
func (m memFileInfo) ModTime() time.Time { return m.modTime }
func (m memFileInfo) IsDir() bool        { return m.dir }
func (m memFileInfo) Sys() interface{}   { return nil }

func baseName(path string) string {
	components := splitPath(path)
	if len(components) == 0 {
		return "/"
	}

	return components[len(components)-1]
}
