package bootfat

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/aligator/checkpoint"
)

// dot entry names used when a new subdirectory is laid out.
var (
	dotName    = [11]byte{'.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	dotDotName = [11]byte{'.', '.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
)

// entryLocation is the on-disk position of a directory entry, used to
// update an entry in place.
type entryLocation struct {
	sector uint32
	offset uint32
}

func decodeEntry(buf []byte) EntryHeader {
	var hdr EntryHeader
	// buf is always exactly one entry, the layout is fixed, so this cannot fail.
	_ = binary.Read(bytes.NewReader(buf), binary.LittleEndian, &hdr)

	return hdr
}

func putEntry(dst []byte, hdr EntryHeader) {
	var w bytes.Buffer
	_ = binary.Write(&w, binary.LittleEndian, &hdr)
	copy(dst[:entrySize], w.Bytes())
}

// findEntry scans the directory starting at dirCluster for the given
// encoded name. The scan follows the directory's cluster chain and stops at
// the first never-used slot. Free and volume label slots are skipped.
// Returns ErrNotFound if no entry matches.
func (v *Volume) findEntry(dirCluster uint32, name [11]byte) (EntryHeader, entryLocation, error) {
	buf := make([]byte, SectorSize)
	cluster := dirCluster

	for hops := uint32(0); hops <= v.maxClusters(); hops++ {
		base := v.clusterToSector(cluster)

		for s := uint32(0); s < v.geo.SectorsPerCluster; s++ {
			if err := v.device.ReadSectors(base+s, buf); err != nil {
				return EntryHeader{}, entryLocation{}, checkpoint.From(err)
			}

			for offset := uint32(0); offset+entrySize <= SectorSize; offset += entrySize {
				if buf[offset] == entryEndOfDir {
					return EntryHeader{}, entryLocation{}, checkpoint.From(ErrNotFound)
				}
				if buf[offset] == entryFree {
					continue
				}

				hdr := decodeEntry(buf[offset : offset+entrySize])
				if hdr.isVolumeLabel() {
					continue
				}

				if hdr.Name == name {
					return hdr, entryLocation{sector: base + s, offset: offset}, nil
				}
			}
		}

		next, err := v.readFATEntry(cluster)
		if err != nil {
			return EntryHeader{}, entryLocation{}, err
		}
		if next.IsEOC() {
			return EntryHeader{}, entryLocation{}, checkpoint.From(ErrNotFound)
		}
		if !next.IsNextCluster() {
			return EntryHeader{}, entryLocation{}, checkpoint.From(ErrCorrupted)
		}

		cluster = next.Value()
	}

	return EntryHeader{}, entryLocation{}, checkpoint.From(ErrCorrupted)
}

// appendEntry writes hdr into the first free slot of the directory starting
// at dirCluster. The directory is never grown: if its existing clusters
// have no free slot left, ErrDirectoryFull is returned.
func (v *Volume) appendEntry(dirCluster uint32, hdr EntryHeader) error {
	buf := make([]byte, SectorSize)
	cluster := dirCluster

	for hops := uint32(0); hops <= v.maxClusters(); hops++ {
		base := v.clusterToSector(cluster)

		for s := uint32(0); s < v.geo.SectorsPerCluster; s++ {
			if err := v.device.ReadSectors(base+s, buf); err != nil {
				return checkpoint.From(err)
			}

			for offset := uint32(0); offset+entrySize <= SectorSize; offset += entrySize {
				if buf[offset] != entryEndOfDir && buf[offset] != entryFree {
					continue
				}

				putEntry(buf[offset:], hdr)

				return checkpoint.From(v.device.WriteSectors(base+s, buf))
			}
		}

		next, err := v.readFATEntry(cluster)
		if err != nil {
			return err
		}
		if next.IsEOC() {
			return checkpoint.From(ErrDirectoryFull)
		}
		if !next.IsNextCluster() {
			return checkpoint.From(ErrCorrupted)
		}

		cluster = next.Value()
	}

	return checkpoint.From(ErrCorrupted)
}

// writeEntryAt replaces the directory entry at the given location.
func (v *Volume) writeEntryAt(loc entryLocation, hdr EntryHeader) error {
	buf := make([]byte, SectorSize)
	if err := v.device.ReadSectors(loc.sector, buf); err != nil {
		return checkpoint.From(err)
	}

	putEntry(buf[loc.offset:], hdr)

	return checkpoint.From(v.device.WriteSectors(loc.sector, buf))
}

// createSubdirectory allocates one cluster for a new subdirectory, lays out
// its "." and ".." entries, zero-fills the rest of the cluster and appends
// a directory entry for it to the parent. Returns the new cluster.
func (v *Volume) createSubdirectory(parentCluster uint32, name [11]byte) (uint32, error) {
	cluster, err := v.allocateCluster()
	if err != nil {
		return 0, err
	}

	content := make([]byte, v.geo.ClusterSize())
	putEntry(content, v.newEntry(dotName, attrDirectory, cluster, 0))
	putEntry(content[entrySize:], v.newEntry(dotDotName, attrDirectory, parentCluster, 0))

	if err := v.writeCluster(cluster, content); err != nil {
		return 0, err
	}

	if err := v.appendEntry(parentCluster, v.newEntry(name, attrDirectory, cluster, 0)); err != nil {
		return 0, err
	}

	return cluster, nil
}

// walk resolves the given directory components starting at the root
// directory and returns the cluster of the final directory. With create set,
// missing components are created as subdirectories on the way down.
// A component that exists but is a file results in ErrNotADirectory.
func (v *Volume) walk(dirs []string, create bool) (uint32, error) {
	current := v.geo.RootCluster

	for _, component := range dirs {
		name := encodeName(component)

		entry, _, err := v.findEntry(current, name)
		if errors.Is(err, ErrNotFound) {
			if !create {
				return 0, err
			}

			current, err = v.createSubdirectory(current, name)
			if err != nil {
				return 0, err
			}

			continue
		}
		if err != nil {
			return 0, err
		}

		if !entry.IsDir() {
			return 0, checkpoint.From(ErrNotADirectory)
		}

		current = entry.FirstCluster()
	}

	return current, nil
}
