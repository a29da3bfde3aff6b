package bootfat

import (
	"errors"
	"strings"
	"time"

	"github.com/aligator/checkpoint"
)

// Volume is a mounted FAT32 volume. It holds the geometry parsed once from
// the boot sector and the block device it was mounted from. It carries no
// other state, every operation re-reads the on-disk structures it needs.
//
// A Volume must not be used concurrently. The block device is assumed to be
// exclusively owned for the duration of every call.
type Volume struct {
	device BlockDevice
	start  uint32
	geo    Geometry
	label  string

	// now provides the timestamp for new directory entries.
	now func() time.Time
}

// Mount reads the boot sector at volumeStart and returns a Volume for the
// FAT32 filesystem found there. See parseBootSector for the trust boundary:
// the caller must be sure the volume actually is FAT32.
func Mount(device BlockDevice, volumeStart uint32) (*Volume, error) {
	buf := make([]byte, SectorSize)
	if err := device.ReadSectors(volumeStart, buf); err != nil {
		return nil, checkpoint.From(err)
	}

	geo, specific, err := parseBootSector(buf)
	if err != nil {
		return nil, err
	}

	return &Volume{
		device: device,
		start:  volumeStart,
		geo:    geo,
		label:  strings.TrimRight(string(specific.BSVolumeLabel[:]), " "),
		now:    time.Now,
	}, nil
}

// Geometry returns the parsed volume geometry.
func (v *Volume) Geometry() Geometry {
	return v.geo
}

// Label returns the volume label from the boot sector.
func (v *Volume) Label() string {
	return v.label
}

// newEntry builds a directory entry stamped with the volume's clock.
func (v *Volume) newEntry(name [11]byte, attribute byte, firstCluster, size uint32) EntryHeader {
	t := v.now()

	hdr := EntryHeader{
		Name:           name,
		Attribute:      attribute,
		CreateTime:     EncodeTime(t),
		CreateDate:     EncodeDate(t),
		LastAccessDate: EncodeDate(t),
		WriteTime:      EncodeTime(t),
		WriteDate:      EncodeDate(t),
		FileSize:       size,
	}
	hdr.SetFirstCluster(firstCluster)

	return hdr
}

// splitPath splits a slash separated path into its components. A leading
// slash and empty components are dropped. "." and ".." have no path syntax
// meaning and are treated as ordinary names.
func splitPath(path string) []string {
	var components []string
	for _, c := range strings.Split(path, "/") {
		if c != "" {
			components = append(components, c)
		}
	}

	return components
}

// WriteFile writes data as the file at path, creating all intermediate
// directories. If the file already exists its entry is updated in place
// with the new chain and size and the old chain is released afterwards, so
// a failure in between never leaves the entry pointing at freed clusters.
// The device is flushed once at the end.
//
// On error the volume may be partially mutated, the operation is not rolled
// back. Re-running the whole operation is the expected recovery.
func (v *Volume) WriteFile(path string, data []byte) error {
	components := splitPath(path)
	if len(components) == 0 {
		return checkpoint.From(ErrNotAFile)
	}

	dirCluster, err := v.walk(components[:len(components)-1], true)
	if err != nil {
		return err
	}

	name := encodeName(components[len(components)-1])

	existing, location, err := v.findEntry(dirCluster, name)
	switch {
	case err == nil:
		if existing.IsDir() {
			return checkpoint.From(ErrNotAFile)
		}

		first, werr := v.writeContent(data)
		if werr != nil {
			return werr
		}

		updated := existing
		updated.SetFirstCluster(first)
		updated.FileSize = uint32(len(data))
		t := v.now()
		updated.WriteTime = EncodeTime(t)
		updated.WriteDate = EncodeDate(t)
		updated.LastAccessDate = EncodeDate(t)

		if werr := v.writeEntryAt(location, updated); werr != nil {
			return werr
		}

		if old := existing.FirstCluster(); old >= 2 {
			if werr := v.freeChain(old); werr != nil {
				return werr
			}
		}
	case errors.Is(err, ErrNotFound):
		first, werr := v.writeContent(data)
		if werr != nil {
			return werr
		}

		if werr := v.appendEntry(dirCluster, v.newEntry(name, attrArchive, first, uint32(len(data)))); werr != nil {
			return werr
		}
	default:
		return err
	}

	return checkpoint.From(v.device.Flush())
}

// ReadFile returns the full content of the file at path by following its
// cluster chain. Reading a directory results in ErrNotAFile.
func (v *Volume) ReadFile(path string) ([]byte, error) {
	entry, err := v.lookup(path)
	if err != nil {
		return nil, err
	}

	if entry.IsDir() {
		return nil, checkpoint.From(ErrNotAFile)
	}

	return v.readContent(entry.FirstCluster(), entry.FileSize)
}

// Mkdir creates the directory at path including all intermediate
// directories. Creating an existing directory succeeds and resolves to the
// same cluster, so the operation is idempotent. The root directory always
// exists.
func (v *Volume) Mkdir(path string) error {
	components := splitPath(path)
	if len(components) == 0 {
		return nil
	}

	if _, err := v.walk(components, true); err != nil {
		return err
	}

	return checkpoint.From(v.device.Flush())
}

// FileExists reports whether path resolves to a file. A missing path,
// including missing intermediate directories, results in (false, nil).
// A path that resolves to a directory results in (false, ErrNotAFile) to
// keep it distinguishable from a missing file.
func (v *Volume) FileExists(path string) (bool, error) {
	entry, err := v.lookup(path)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotADirectory) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if entry.IsDir() {
		return false, checkpoint.From(ErrNotAFile)
	}

	return true, nil
}

// ReadDir lists the entries of the directory at path. Free slots, the
// volume label and the "." / ".." bookkeeping entries are skipped.
func (v *Volume) ReadDir(path string) ([]EntryHeader, error) {
	cluster, err := v.walk(splitPath(path), false)
	if err != nil {
		return nil, err
	}

	return v.listEntries(cluster)
}

// lookup resolves path to its directory entry. The root directory has no
// entry and resolves to ErrNotAFile.
func (v *Volume) lookup(path string) (EntryHeader, error) {
	components := splitPath(path)
	if len(components) == 0 {
		return EntryHeader{}, checkpoint.From(ErrNotAFile)
	}

	dirCluster, err := v.walk(components[:len(components)-1], false)
	if err != nil {
		return EntryHeader{}, err
	}

	entry, _, err := v.findEntry(dirCluster, encodeName(components[len(components)-1]))
	if err != nil {
		return EntryHeader{}, err
	}

	return entry, nil
}

// listEntries collects all used entries of the directory starting at
// cluster, following its chain.
func (v *Volume) listEntries(cluster uint32) ([]EntryHeader, error) {
	var entries []EntryHeader
	buf := make([]byte, SectorSize)

	for hops := uint32(0); hops <= v.maxClusters(); hops++ {
		base := v.clusterToSector(cluster)

		for s := uint32(0); s < v.geo.SectorsPerCluster; s++ {
			if err := v.device.ReadSectors(base+s, buf); err != nil {
				return nil, checkpoint.From(err)
			}

			for offset := uint32(0); offset+entrySize <= SectorSize; offset += entrySize {
				if buf[offset] == entryEndOfDir {
					return entries, nil
				}
				if buf[offset] == entryFree {
					continue
				}

				hdr := decodeEntry(buf[offset : offset+entrySize])
				if hdr.isVolumeLabel() || hdr.isDotEntry() {
					continue
				}

				entries = append(entries, hdr)
			}
		}

		next, err := v.readFATEntry(cluster)
		if err != nil {
			return nil, err
		}
		if next.IsEOC() {
			return entries, nil
		}
		if !next.IsNextCluster() {
			return nil, checkpoint.From(ErrCorrupted)
		}

		cluster = next.Value()
	}

	return nil, checkpoint.From(ErrCorrupted)
}
