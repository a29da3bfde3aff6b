package bootfat

import (
	"io"

	"github.com/aligator/checkpoint"
)

// SectorSize is the fixed sector size of the engine. All logical block
// addresses and buffer lengths are expressed in terms of this constant.
const SectorSize = 512

// BlockDevice is the block I/O capability the engine operates on.
// It is intentionally minimal so that it can be backed by a firmware block
// protocol as well as by a plain image file or an in-memory buffer in tests.
//
// Generated mock using mockgen:
//  mockgen -source=device.go -destination=device_mock.go -package bootfat
type BlockDevice interface {
	// ReadSectors reads len(buf)/SectorSize consecutive sectors starting at
	// the given logical block address into buf.
	ReadSectors(lba uint32, buf []byte) error
	// WriteSectors writes len(buf)/SectorSize consecutive sectors starting
	// at the given logical block address from buf.
	WriteSectors(lba uint32, buf []byte) error
	// Flush is a durability barrier. It is invoked once after every
	// top-level operation that mutated the volume.
	Flush() error
}

// SeekerDevice adapts an io.ReadWriteSeeker, typically a raw image file,
// to the BlockDevice interface.
type SeekerDevice struct {
	rw io.ReadWriteSeeker
}

// NewSeekerDevice wraps the given io.ReadWriteSeeker as a BlockDevice.
func NewSeekerDevice(rw io.ReadWriteSeeker) *SeekerDevice {
	return &SeekerDevice{rw: rw}
}

func (d *SeekerDevice) ReadSectors(lba uint32, buf []byte) error {
	if _, err := d.rw.Seek(int64(lba)*SectorSize, io.SeekStart); err != nil {
		return checkpoint.From(err)
	}

	if _, err := io.ReadFull(d.rw, buf); err != nil {
		return checkpoint.From(err)
	}

	return nil
}

func (d *SeekerDevice) WriteSectors(lba uint32, buf []byte) error {
	if _, err := d.rw.Seek(int64(lba)*SectorSize, io.SeekStart); err != nil {
		return checkpoint.From(err)
	}

	if _, err := d.rw.Write(buf); err != nil {
		return checkpoint.From(err)
	}

	return nil
}

// Flush syncs the underlying stream if it supports syncing, for example
// an *os.File. Otherwise it is a no-op.
func (d *SeekerDevice) Flush() error {
	if s, ok := d.rw.(interface{ Sync() error }); ok {
		return checkpoint.From(s.Sync())
	}

	return nil
}
