// File model contains the structs which match the direct structures of the FAT filesystem.

package bootfat

// BPB is the common BIOS parameter block at the start of the boot sector.
// It is decoded little-endian straight from the first sector of the volume.
type BPB struct {
	BSJumpBoot          [3]byte
	BSOEMName           [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   byte
	ReservedSectorCount uint16
	NumFATs             byte
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               byte
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	TotalSectors32      uint32
	FATSpecificData     [54]byte
}

// FAT32SpecificData is the FAT32 part of the boot sector, stored inside
// BPB.FATSpecificData.
type FAT32SpecificData struct {
	FATSize          uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfo           uint16
	BkBootSector     uint16
	Reserved         [12]byte
	BSDriveNumber    byte
	BSReserved1      byte
	BSBootSignature  byte
	BSVolumeID       uint32
	BSVolumeLabel    [11]byte
	BSFileSystemType [8]byte
}

// Directory entry attribute flags.
const (
	attrReadOnly  = 0x01
	attrHidden    = 0x02
	attrSystem    = 0x04
	attrVolumeID  = 0x08
	attrDirectory = 0x10
	attrArchive   = 0x20
)

const (
	// entrySize is the fixed on-disk size of a directory entry.
	entrySize = 32
	// entryFree marks a deleted entry slot.
	entryFree = 0xE5
	// entryEndOfDir marks a never used slot. No used slot follows it.
	entryEndOfDir = 0x00
)

// EntryHeader is one 32 byte directory entry describing a file or a
// subdirectory.
type EntryHeader struct {
	Name            [11]byte
	Attribute       byte
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

// FirstCluster returns the entry's first data cluster, combined from the
// two on-disk uint16 halves.
func (h *EntryHeader) FirstCluster() uint32 {
	return uint32(h.FirstClusterHI)<<16 | uint32(h.FirstClusterLO)
}

// SetFirstCluster stores the given cluster in the two on-disk uint16 halves.
func (h *EntryHeader) SetFirstCluster(cluster uint32) {
	h.FirstClusterHI = uint16(cluster >> 16)
	h.FirstClusterLO = uint16(cluster)
}

// IsDir reports whether the entry describes a subdirectory.
func (h *EntryHeader) IsDir() bool {
	return h.Attribute&attrDirectory != 0
}

// isFree reports whether the entry slot is free for reuse.
func (h *EntryHeader) isFree() bool {
	return h.Name[0] == entryEndOfDir || h.Name[0] == entryFree
}

// isVolumeLabel reports whether the entry is a volume label. Long filename
// entries carry the volume label bit as well and are skipped the same way.
func (h *EntryHeader) isVolumeLabel() bool {
	return h.Attribute&attrVolumeID != 0
}

// isDotEntry reports whether the entry is one of the "." / ".." bookkeeping
// entries of a subdirectory.
func (h *EntryHeader) isDotEntry() bool {
	return h.Name[0] == '.'
}
