package bootfat

import (
	"errors"
	"os"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

// Fs exposes a Volume as an afero.Fs.
//
// Supported are the operations the engine provides: opening and reading
// files and directories, creating files (buffered, written on Close) and
// creating directories. The engine has no delete or rename, those
// operations return syscall.EPERM.
type Fs struct {
	vol *Volume
}

// NewFs wraps the given Volume as an afero.Fs.
func NewFs(vol *Volume) *Fs {
	return &Fs{vol: vol}
}

func (fs *Fs) Name() string {
	return "bootfat"
}

// isRootPath reports whether name refers to the root directory.
func isRootPath(name string) bool {
	name = strings.Trim(name, "/")

	return name == "" || name == "."
}

// Create returns a writable file buffer for the given path. The content is
// written to the volume when the file is closed or synced.
func (fs *Fs) Create(name string) (afero.File, error) {
	if isRootPath(name) {
		return nil, &os.PathError{Op: "create", Path: name, Err: syscall.EISDIR}
	}

	return &File{
		fs:       fs.vol,
		path:     name,
		writable: true,
	}, nil
}

func (fs *Fs) Open(name string) (afero.File, error) {
	info, err := fs.Stat(name)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		dirPath := name
		if isRootPath(name) {
			// "." is an io/fs style root name, not an on-disk entry.
			dirPath = ""
		}

		entries, err := fs.vol.ReadDir(dirPath)
		if err != nil {
			return nil, err
		}

		infos := make([]os.FileInfo, len(entries))
		for i := range entries {
			infos[i] = entries[i].FileInfo()
		}
		// io/fs consumers expect directory listings in name order.
		sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

		return &File{
			fs:          fs.vol,
			path:        name,
			isDirectory: true,
			entries:     infos,
			stat:        info,
		}, nil
	}

	data, err := fs.vol.ReadFile(name)
	if err != nil {
		return nil, err
	}

	return &File{
		fs:   fs.vol,
		path: name,
		data: data,
		stat: info,
	}, nil
}

// OpenFile supports read-only opens and create-for-write opens. Opening an
// existing file for in-place modification is not supported by the engine.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		if flag&os.O_CREATE == 0 {
			return nil, &os.PathError{Op: "open", Path: name, Err: syscall.EPERM}
		}

		return fs.Create(name)
	}

	return fs.Open(name)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return fs.vol.Mkdir(name)
}

// MkdirAll is identical to Mkdir, the engine always creates all
// intermediate directories.
func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return fs.vol.Mkdir(path)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	if isRootPath(name) {
		return memFileInfo{name: "/", dir: true}, nil
	}

	entry, err := fs.vol.lookup(name)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotADirectory) {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	if err != nil {
		return nil, err
	}

	return entry.FileInfo(), nil
}

func (fs *Fs) Remove(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: syscall.EPERM}
}

func (fs *Fs) RemoveAll(path string) error {
	return &os.PathError{Op: "removeall", Path: path, Err: syscall.EPERM}
}

func (fs *Fs) Rename(oldname, newname string) error {
	return &os.PathError{Op: "rename", Path: oldname, Err: syscall.EPERM}
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: syscall.EPERM}
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return &os.PathError{Op: "chown", Path: name, Err: syscall.EPERM}
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return &os.PathError{Op: "chtimes", Path: name, Err: syscall.EPERM}
}
