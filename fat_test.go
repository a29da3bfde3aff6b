package bootfat

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
)

func Test_fatEntry_Value(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want uint32
	}{
		{
			name: "plain value",
			e:    0x00000005,
			want: 5,
		},
		{
			name: "reserved top bits are masked",
			e:    0xF0000005,
			want: 5,
		},
		{
			name: "end of chain",
			e:    0x0FFFFFFF,
			want: 0x0FFFFFFF,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Value(); got != tt.want {
				t.Errorf("fatEntry.Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsFree(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{
			name: "zero is free",
			e:    0,
			want: true,
		},
		{
			name: "reserved bits only is free",
			e:    0xF0000000,
			want: true,
		},
		{
			name: "next cluster is not free",
			e:    3,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsFree(); got != tt.want {
				t.Errorf("fatEntry.IsFree() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsEOC(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{
			name: "lowest end of chain value",
			e:    0x0FFFFFF8,
			want: true,
		},
		{
			name: "highest end of chain value",
			e:    0x0FFFFFFF,
			want: true,
		},
		{
			name: "end of chain with reserved bits set",
			e:    0xFFFFFFFF,
			want: true,
		},
		{
			name: "bad cluster marker",
			e:    0x0FFFFFF7,
			want: false,
		},
		{
			name: "next cluster",
			e:    2,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsEOC(); got != tt.want {
				t.Errorf("fatEntry.IsEOC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsNextCluster(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{
			name: "free",
			e:    0,
			want: false,
		},
		{
			name: "reserved cluster 1",
			e:    1,
			want: false,
		},
		{
			name: "first data cluster",
			e:    2,
			want: true,
		},
		{
			name: "highest chain value",
			e:    0x0FFFFFF6,
			want: true,
		},
		{
			name: "bad cluster marker",
			e:    0x0FFFFFF7,
			want: false,
		},
		{
			name: "end of chain",
			e:    0x0FFFFFF8,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsNextCluster(); got != tt.want {
				t.Errorf("fatEntry.IsNextCluster() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsBad(t *testing.T) {
	if !fatEntry(0x0FFFFFF7).IsBad() {
		t.Error("fatEntry.IsBad() = false for the bad cluster marker")
	}
	if fatEntry(2).IsBad() {
		t.Error("fatEntry.IsBad() = true for a chain value")
	}
}

// rawFATEntry reads the raw 32 bit entry of a cluster directly from the
// device, bypassing the volume.
func rawFATEntry(t *testing.T, v *Volume, dev BlockDevice, copyIndex, cluster uint32) uint32 {
	t.Helper()

	sector, offset := v.fatPosition(copyIndex, cluster)
	buf := make([]byte, SectorSize)
	if err := dev.ReadSectors(sector, buf); err != nil {
		t.Fatalf("ReadSectors(%d) error = %v", sector, err)
	}

	return binary.LittleEndian.Uint32(buf[offset:])
}

func TestVolume_writeFATEntry_keepsAllCopiesInSync(t *testing.T) {
	vol, dev := newTestVolume(t, defaultTestConfig())

	if err := vol.writeFATEntry(5, 0x0000ABCD); err != nil {
		t.Fatalf("writeFATEntry() error = %v", err)
	}

	for copyIndex := uint32(0); copyIndex < vol.geo.NumFATs; copyIndex++ {
		if got := rawFATEntry(t, vol, dev, copyIndex, 5); got != 0x0000ABCD {
			t.Errorf("FAT copy %d entry = %#x, want %#x", copyIndex, got, 0x0000ABCD)
		}
	}
}

func TestVolume_writeFATEntry_preservesReservedBits(t *testing.T) {
	vol, dev := newTestVolume(t, defaultTestConfig())

	// Plant reserved top bits in both copies first.
	for copyIndex := uint32(0); copyIndex < vol.geo.NumFATs; copyIndex++ {
		sector, offset := vol.fatPosition(copyIndex, 6)
		buf := make([]byte, SectorSize)
		if err := dev.ReadSectors(sector, buf); err != nil {
			t.Fatalf("ReadSectors() error = %v", err)
		}
		binary.LittleEndian.PutUint32(buf[offset:], 0xA0000000)
		if err := dev.WriteSectors(sector, buf); err != nil {
			t.Fatalf("WriteSectors() error = %v", err)
		}
	}

	if err := vol.writeFATEntry(6, eocMarker); err != nil {
		t.Fatalf("writeFATEntry() error = %v", err)
	}

	for copyIndex := uint32(0); copyIndex < vol.geo.NumFATs; copyIndex++ {
		if got := rawFATEntry(t, vol, dev, copyIndex, 6); got != 0xAFFFFFFF {
			t.Errorf("FAT copy %d entry = %#x, want %#x", copyIndex, got, uint32(0xAFFFFFFF))
		}
	}
}

func TestVolume_findFreeCluster(t *testing.T) {
	vol, _ := newTestVolume(t, defaultTestConfig())

	// Cluster 2 is taken by the empty root directory.
	got, err := vol.findFreeCluster(2)
	if err != nil {
		t.Fatalf("findFreeCluster() error = %v", err)
	}
	if got != 3 {
		t.Errorf("findFreeCluster(2) = %d, want 3", got)
	}
}

func TestVolume_allocateCluster(t *testing.T) {
	vol, _ := newTestVolume(t, defaultTestConfig())

	cluster, err := vol.allocateCluster()
	if err != nil {
		t.Fatalf("allocateCluster() error = %v", err)
	}
	if cluster != 3 {
		t.Errorf("allocateCluster() = %d, want 3", cluster)
	}

	entry, err := vol.readFATEntry(cluster)
	if err != nil {
		t.Fatalf("readFATEntry() error = %v", err)
	}
	if !entry.IsEOC() {
		t.Errorf("a fresh cluster must be marked end of chain, got %#x", entry.Value())
	}

	// The next allocation must not see the fresh cluster as free.
	next, err := vol.allocateCluster()
	if err != nil {
		t.Fatalf("allocateCluster() error = %v", err)
	}
	if next != 4 {
		t.Errorf("second allocateCluster() = %d, want 4", next)
	}
}

func TestVolume_allocateCluster_outOfSpace(t *testing.T) {
	vol, _ := newTestVolume(t, tinyTestConfig())

	// Fill every cluster the single FAT sector can describe.
	for cluster := uint32(3); cluster < vol.maxClusters(); cluster++ {
		if err := vol.writeFATEntry(cluster, eocMarker); err != nil {
			t.Fatalf("writeFATEntry(%d) error = %v", cluster, err)
		}
	}

	_, err := vol.allocateCluster()
	if !errors.Is(err, ErrOutOfSpace) {
		t.Errorf("allocateCluster() error = %v, want ErrOutOfSpace", err)
	}
}

func TestVolume_freeChain(t *testing.T) {
	vol, _ := newTestVolume(t, defaultTestConfig())

	data := make([]byte, 3*vol.geo.ClusterSize())
	first, err := vol.writeContent(data)
	if err != nil {
		t.Fatalf("writeContent() error = %v", err)
	}

	chain := collectChain(t, vol, first)
	if len(chain) != 3 {
		t.Fatalf("chain length = %d, want 3", len(chain))
	}

	if err := vol.freeChain(first); err != nil {
		t.Fatalf("freeChain() error = %v", err)
	}

	for _, cluster := range chain {
		entry, err := vol.readFATEntry(cluster)
		if err != nil {
			t.Fatalf("readFATEntry(%d) error = %v", cluster, err)
		}
		if !entry.IsFree() {
			t.Errorf("cluster %d entry = %#x, want free", cluster, entry.Value())
		}
	}
}

func TestVolume_writeFATEntry_propagatesWriteError(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	deviceError := errors.New("device gone")

	mockDevice := NewMockBlockDevice(mockCtrl)
	mockDevice.EXPECT().ReadSectors(gomock.Any(), gomock.Any()).Return(nil)
	mockDevice.EXPECT().WriteSectors(gomock.Any(), gomock.Any()).Return(deviceError)

	vol := &Volume{
		device: mockDevice,
		geo: Geometry{
			SectorsPerCluster: 1,
			ReservedSectors:   1,
			FATSize:           1,
			NumFATs:           2,
			RootCluster:       2,
			DataStartSector:   3,
		},
	}

	err := vol.writeFATEntry(2, eocMarker)
	if !errors.Is(err, deviceError) {
		t.Errorf("writeFATEntry() error = %v, want wrapped device error", err)
	}
}
