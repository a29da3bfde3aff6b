package bootfat

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/spf13/afero"
)

const (
	testReservedSectors = 32
	testNumFATs         = 2
)

// testVolumeConfig describes the shape of an in-memory test volume.
type testVolumeConfig struct {
	sectorsPerCluster uint8
	fatSize           uint32
	dataClusters      uint32
}

// defaultTestConfig is a volume with 4096 byte clusters.
func defaultTestConfig() testVolumeConfig {
	return testVolumeConfig{
		sectorsPerCluster: 8,
		fatSize:           16,
		dataClusters:      300,
	}
}

// tinyTestConfig is a volume with single sector clusters and a single
// sector FAT copy (128 entries), small enough to fill up in tests.
func tinyTestConfig() testVolumeConfig {
	return testVolumeConfig{
		sectorsPerCluster: 1,
		fatSize:           1,
		dataClusters:      126,
	}
}

// buildTestImage formats a minimal empty FAT32 volume: boot sector, zeroed
// FAT copies with the two reserved entries and an end-of-chain marker for
// the empty root directory in cluster 2.
func buildTestImage(t *testing.T, cfg testVolumeConfig) []byte {
	t.Helper()

	totalSectors := testReservedSectors + testNumFATs*cfg.fatSize + cfg.dataClusters*uint32(cfg.sectorsPerCluster)
	img := make([]byte, totalSectors*SectorSize)

	specific := FAT32SpecificData{
		FATSize:         cfg.fatSize,
		RootCluster:     2,
		BSBootSignature: 0x29,
	}
	copy(specific.BSVolumeLabel[:], "BOOTFATTEST")
	copy(specific.BSFileSystemType[:], "FAT32   ")

	var specBuf bytes.Buffer
	if err := binary.Write(&specBuf, binary.LittleEndian, &specific); err != nil {
		t.Fatalf("encode FAT32 specific data: %v", err)
	}

	bpb := BPB{
		BSJumpBoot:          [3]byte{0xEB, 0x58, 0x90},
		BytesPerSector:      SectorSize,
		SectorsPerCluster:   cfg.sectorsPerCluster,
		ReservedSectorCount: testReservedSectors,
		NumFATs:             testNumFATs,
		Media:               0xF8,
		TotalSectors32:      totalSectors,
	}
	copy(bpb.BSOEMName[:], "bootfat ")
	copy(bpb.FATSpecificData[:], specBuf.Bytes())

	var bsBuf bytes.Buffer
	if err := binary.Write(&bsBuf, binary.LittleEndian, &bpb); err != nil {
		t.Fatalf("encode boot sector: %v", err)
	}
	copy(img, bsBuf.Bytes())
	img[510] = 0x55
	img[511] = 0xAA

	for i := uint32(0); i < testNumFATs; i++ {
		base := (testReservedSectors + i*cfg.fatSize) * SectorSize
		binary.LittleEndian.PutUint32(img[base:], 0x0FFFFFF8)
		binary.LittleEndian.PutUint32(img[base+4:], 0x0FFFFFFF)
		binary.LittleEndian.PutUint32(img[base+8:], 0x0FFFFFFF)
	}

	return img
}

// testClock is the fixed timestamp used for new entries in tests.
var testClock = time.Date(2024, 5, 1, 12, 30, 2, 0, time.UTC)

// newTestVolume formats a FAT32 volume in an afero in-memory file, mounts
// it and pins the volume clock.
func newTestVolume(t *testing.T, cfg testVolumeConfig) (*Volume, BlockDevice) {
	t.Helper()

	memFs := afero.NewMemMapFs()
	f, err := memFs.Create("test.img")
	if err != nil {
		t.Fatalf("create image file: %v", err)
	}
	if _, err := f.Write(buildTestImage(t, cfg)); err != nil {
		t.Fatalf("write image file: %v", err)
	}

	dev := NewSeekerDevice(f)
	vol, err := Mount(dev, 0)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	vol.now = func() time.Time { return testClock }

	return vol, dev
}

// firstClusterOf resolves a path and returns the first cluster of its entry.
func firstClusterOf(t *testing.T, v *Volume, path string) uint32 {
	t.Helper()

	entry, err := v.lookup(path)
	if err != nil {
		t.Fatalf("lookup(%q) error = %v", path, err)
	}

	return entry.FirstCluster()
}

// collectChain follows a cluster chain until its end-of-chain marker and
// returns all visited clusters. It fails the test on a broken or looping
// chain.
func collectChain(t *testing.T, v *Volume, first uint32) []uint32 {
	t.Helper()

	chain := []uint32{first}
	cluster := first

	for i := uint32(0); i <= v.maxClusters(); i++ {
		entry, err := v.readFATEntry(cluster)
		if err != nil {
			t.Fatalf("readFATEntry(%d) error = %v", cluster, err)
		}

		if entry.IsEOC() {
			return chain
		}
		if !entry.IsNextCluster() {
			t.Fatalf("chain broken at cluster %d: entry %#x", cluster, entry.Value())
		}

		cluster = entry.Value()
		chain = append(chain, cluster)
	}

	t.Fatal("cluster chain does not terminate")
	return nil
}
