// Package bootfat implements a minimal FAT32 read/write engine meant for
// boot-stage installers which have to place files on a FAT32 volume without
// any operating system filesystem stack underneath.
//
// The engine works directly on a BlockDevice in fixed 512 byte sectors.
// Nothing is cached between calls, every on-disk structure is re-read when
// it is needed. All operations are synchronous and single threaded.
//
// The primary entry point is Mount which parses the boot sector once and
// returns a Volume. The package level functions WriteFile, ReadFile,
// CreateDirectory and FileExists are one-shot convenience wrappers which
// mount the volume again on every call.
//
// Long (VFAT) file names are not supported, every path component is encoded
// to its 8.3 short name. The engine trusts the caller that the volume really
// contains a FAT32 filesystem; besides a few structural sanity checks the
// boot sector is not validated.
package bootfat

import (
	"errors"
)

// These errors may be returned by any of the volume operations.
// They are wrapped with checkpoint, use errors.Is to test for them.
var (
	// ErrNotFound is returned when a path component does not exist.
	ErrNotFound = errors.New("no file or directory with this name exists")
	// ErrOutOfSpace is returned when no free cluster is left on the volume.
	ErrOutOfSpace = errors.New("no free cluster left on the volume")
	// ErrDirectoryFull is returned when a directory has no free entry slot
	// left. Directories are never grown by chaining another cluster.
	ErrDirectoryFull = errors.New("no free entry slot left in the directory")
	// ErrNotAFile is returned when a file operation hits a directory.
	ErrNotAFile = errors.New("the entry is a directory, not a file")
	// ErrNotADirectory is returned when a directory operation hits a file.
	ErrNotADirectory = errors.New("the entry is a file, not a directory")
	// ErrCorrupted is returned when an on-disk structure cannot be used,
	// for example a cluster chain that ends before the file size is reached.
	ErrCorrupted = errors.New("the on-disk structure is not a usable FAT32 layout")
)

// WriteFile writes data to the given path on the volume starting at
// volumeStart, creating all intermediate directories. An existing file is
// overwritten in place and its old cluster chain is released.
func WriteFile(device BlockDevice, volumeStart uint32, path string, data []byte) error {
	vol, err := Mount(device, volumeStart)
	if err != nil {
		return err
	}

	return vol.WriteFile(path, data)
}

// ReadFile returns the full content of the file at the given path.
func ReadFile(device BlockDevice, volumeStart uint32, path string) ([]byte, error) {
	vol, err := Mount(device, volumeStart)
	if err != nil {
		return nil, err
	}

	return vol.ReadFile(path)
}

// CreateDirectory creates the directory at the given path including all
// intermediate directories. It succeeds if the directory already exists.
func CreateDirectory(device BlockDevice, volumeStart uint32, path string) error {
	vol, err := Mount(device, volumeStart)
	if err != nil {
		return err
	}

	return vol.Mkdir(path)
}

// FileExists reports whether a file exists at the given path.
// A missing path results in (false, nil). A path that resolves to a
// directory results in (false, ErrNotAFile).
func FileExists(device BlockDevice, volumeStart uint32, path string) (bool, error) {
	vol, err := Mount(device, volumeStart)
	if err != nil {
		return false, err
	}

	return vol.FileExists(path)
}
