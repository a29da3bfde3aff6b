package bootfat

import (
	"encoding/binary"

	"github.com/aligator/checkpoint"
)

// fatEntry is one 32 bit allocation table entry. Only the low 28 bits are
// significant, the top 4 bits are reserved and must be preserved on write.
type fatEntry uint32

const (
	// fatEntryMask selects the 28 significant bits of an entry.
	fatEntryMask = 0x0FFFFFFF
	// badClusterMarker marks a cluster as unusable.
	badClusterMarker = 0x0FFFFFF7
	// eocMarker is the end-of-chain value written by this engine.
	eocMarker fatEntry = 0x0FFFFFFF
)

// Value returns the 28 significant bits of the entry.
func (e fatEntry) Value() uint32 {
	return uint32(e) & fatEntryMask
}

// IsFree reports whether the cluster is unallocated.
func (e fatEntry) IsFree() bool {
	return e.Value() == 0
}

// IsEOC reports whether the entry marks the end of a cluster chain.
func (e fatEntry) IsEOC() bool {
	return e.Value() >= 0x0FFFFFF8 && e.Value() <= 0x0FFFFFFF
}

// IsBad reports whether the cluster is marked unusable.
func (e fatEntry) IsBad() bool {
	return e.Value() == badClusterMarker
}

// IsNextCluster reports whether the entry points to a next cluster.
func (e fatEntry) IsNextCluster() bool {
	return e.Value() >= 2 && e.Value() <= 0x0FFFFFF6
}

// maxClusters returns the number of entries a single FAT copy can hold.
// It bounds every chain walk so a corrupted, looping chain terminates.
func (v *Volume) maxClusters() uint32 {
	return v.geo.FATSize * (SectorSize / 4)
}

// fatPosition returns the absolute sector and the byte offset inside that
// sector of a cluster's entry in the given FAT copy.
func (v *Volume) fatPosition(copyIndex, cluster uint32) (uint32, uint32) {
	offset := cluster * 4
	sector := v.start + v.geo.ReservedSectors + copyIndex*v.geo.FATSize + offset/SectorSize

	return sector, offset % SectorSize
}

// readFATEntry reads a cluster's entry from the first FAT copy.
func (v *Volume) readFATEntry(cluster uint32) (fatEntry, error) {
	sector, offset := v.fatPosition(0, cluster)

	buf := make([]byte, SectorSize)
	if err := v.device.ReadSectors(sector, buf); err != nil {
		return 0, checkpoint.From(err)
	}

	return fatEntry(binary.LittleEndian.Uint32(buf[offset:]) & fatEntryMask), nil
}

// writeFATEntry writes a cluster's entry into every FAT copy by
// read-modify-write of the containing sector. All copies end up in the same
// state. A failure on any copy is surfaced immediately, already written
// copies are not rolled back.
func (v *Volume) writeFATEntry(cluster uint32, value fatEntry) error {
	buf := make([]byte, SectorSize)

	for copyIndex := uint32(0); copyIndex < v.geo.NumFATs; copyIndex++ {
		sector, offset := v.fatPosition(copyIndex, cluster)

		if err := v.device.ReadSectors(sector, buf); err != nil {
			return checkpoint.From(err)
		}

		reserved := binary.LittleEndian.Uint32(buf[offset:]) &^ uint32(fatEntryMask)
		binary.LittleEndian.PutUint32(buf[offset:], reserved|value.Value())

		if err := v.device.WriteSectors(sector, buf); err != nil {
			return checkpoint.From(err)
		}
	}

	return nil
}

// findFreeCluster scans the allocation table from start (inclusive) upward
// and returns the first free cluster. First fit, no free list is kept.
func (v *Volume) findFreeCluster(start uint32) (uint32, error) {
	for cluster := start; cluster < v.maxClusters(); cluster++ {
		entry, err := v.readFATEntry(cluster)
		if err != nil {
			return 0, err
		}

		if entry.IsFree() {
			return cluster, nil
		}
	}

	return 0, checkpoint.From(ErrOutOfSpace)
}

// allocateCluster reserves one free cluster and immediately marks it as end
// of chain, so a half finished allocation never appears free to a later
// scan. The caller chains it onto a previous cluster if needed.
func (v *Volume) allocateCluster() (uint32, error) {
	cluster, err := v.findFreeCluster(2)
	if err != nil {
		return 0, err
	}

	if err := v.writeFATEntry(cluster, eocMarker); err != nil {
		return 0, err
	}

	return cluster, nil
}

// freeChain releases a whole cluster chain starting at first by writing
// free markers into every FAT copy.
func (v *Volume) freeChain(first uint32) error {
	cluster := first

	for hops := uint32(0); hops <= v.maxClusters(); hops++ {
		next, err := v.readFATEntry(cluster)
		if err != nil {
			return err
		}

		if err := v.writeFATEntry(cluster, 0); err != nil {
			return err
		}

		if !next.IsNextCluster() {
			return nil
		}

		cluster = next.Value()
	}

	return checkpoint.From(ErrCorrupted)
}
