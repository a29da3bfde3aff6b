package bootfat

import (
	"io/fs"
)

// GoDirEntry adapts an fs.FileInfo to fs.DirEntry.
type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

// GoFile adapts a File to fs.File and fs.ReadDirFile.
type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) Read(p []byte) (int, error) {
	return g.File.Read(p)
}

func (g GoFile) Close() error {
	return g.File.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)
	if err != nil {
		return nil, err
	}

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, nil
}

// GoFs wraps the afero adapter to be compatible with fs.FS.
type GoFs struct {
	Fs
}

// NewGoFS wraps the given Volume as an fs.FS compatible filesystem.
func NewGoFS(vol *Volume) *GoFs {
	return &GoFs{Fs{vol: vol}}
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	return GoFile{file.(*File)}, nil
}
