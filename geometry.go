package bootfat

import (
	"bytes"
	"encoding/binary"

	"github.com/aligator/checkpoint"
)

// Geometry describes the layout of a mounted FAT32 volume as derived from
// its boot sector. All sector values are relative to the start of the
// volume, not to the start of the device.
type Geometry struct {
	// SectorsPerCluster is the size of one allocation unit in sectors.
	SectorsPerCluster uint32
	// ReservedSectors is the number of sectors before the first FAT copy.
	ReservedSectors uint32
	// FATSize is the size of a single FAT copy in sectors.
	FATSize uint32
	// NumFATs is the number of redundant FAT copies.
	NumFATs uint32
	// RootCluster is the first cluster of the root directory.
	RootCluster uint32
	// DataStartSector is the first sector of the data region:
	// ReservedSectors + NumFATs*FATSize.
	DataStartSector uint32
}

// ClusterSize returns the size of one cluster in bytes.
func (g Geometry) ClusterSize() uint32 {
	return g.SectorsPerCluster * SectorSize
}

// parseBootSector interprets buf as a FAT32 boot sector.
//
// Only structural sanity is checked: fields that would lead to a division
// by zero reject the sector with ErrCorrupted. There is no signature, media
// or filesystem-type validation. The caller must already know that the
// volume is FAT32, a structurally readable but malformed sector produces
// nonsensical geometry without an error.
func parseBootSector(buf []byte) (Geometry, FAT32SpecificData, error) {
	var bpb BPB
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &bpb); err != nil {
		return Geometry{}, FAT32SpecificData{}, checkpoint.Wrap(err, ErrCorrupted)
	}

	var specific FAT32SpecificData
	if err := binary.Read(bytes.NewReader(bpb.FATSpecificData[:]), binary.LittleEndian, &specific); err != nil {
		return Geometry{}, FAT32SpecificData{}, checkpoint.Wrap(err, ErrCorrupted)
	}

	geo := Geometry{
		SectorsPerCluster: uint32(bpb.SectorsPerCluster),
		ReservedSectors:   uint32(bpb.ReservedSectorCount),
		FATSize:           specific.FATSize,
		NumFATs:           uint32(bpb.NumFATs),
		RootCluster:       specific.RootCluster,
	}
	geo.DataStartSector = geo.ReservedSectors + geo.NumFATs*geo.FATSize

	if geo.SectorsPerCluster == 0 || geo.ReservedSectors == 0 || geo.NumFATs == 0 || geo.FATSize == 0 {
		return Geometry{}, FAT32SpecificData{}, checkpoint.From(ErrCorrupted)
	}
	if geo.RootCluster < 2 {
		return Geometry{}, FAT32SpecificData{}, checkpoint.From(ErrCorrupted)
	}

	return geo, specific, nil
}
