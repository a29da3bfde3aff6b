package bootfat

import (
	"github.com/aligator/checkpoint"
)

// clusterToSector returns the absolute sector of the first sector of the
// given cluster. Cluster numbering starts at 2.
func (v *Volume) clusterToSector(cluster uint32) uint32 {
	return v.start + v.geo.DataStartSector + (cluster-2)*v.geo.SectorsPerCluster
}

// readCluster reads one full cluster. buf must be ClusterSize bytes.
func (v *Volume) readCluster(cluster uint32, buf []byte) error {
	return checkpoint.From(v.device.ReadSectors(v.clusterToSector(cluster), buf))
}

// writeCluster writes one full cluster. buf must be ClusterSize bytes.
func (v *Volume) writeCluster(cluster uint32, buf []byte) error {
	return checkpoint.From(v.device.WriteSectors(v.clusterToSector(cluster), buf))
}

// writeContent writes data across newly allocated, chained clusters and
// returns the first cluster of the chain. Even empty content occupies one
// cluster so that every file entry points at a valid chain. The last
// cluster keeps the end-of-chain marker it received at allocation, partial
// trailing clusters are zero padded.
func (v *Volume) writeContent(data []byte) (uint32, error) {
	clusterSize := int(v.geo.ClusterSize())

	clustersNeeded := (len(data) + clusterSize - 1) / clusterSize
	if clustersNeeded == 0 {
		clustersNeeded = 1
	}

	var first, previous uint32
	buf := make([]byte, clusterSize)

	for i := 0; i < clustersNeeded; i++ {
		cluster, err := v.allocateCluster()
		if err != nil {
			return 0, err
		}

		if first == 0 {
			first = cluster
		} else if err := v.writeFATEntry(previous, fatEntry(cluster)); err != nil {
			return 0, err
		}

		for j := range buf {
			buf[j] = 0
		}
		chunk := data[i*clusterSize:]
		if len(chunk) > clusterSize {
			chunk = chunk[:clusterSize]
		}
		copy(buf, chunk)

		if err := v.writeCluster(cluster, buf); err != nil {
			return 0, err
		}

		previous = cluster
	}

	return first, nil
}

// readContent reads size bytes by following the cluster chain starting at
// first. A chain that ends or becomes invalid before size bytes are read is
// reported as ErrCorrupted instead of returning short data.
func (v *Volume) readContent(first uint32, size uint32) ([]byte, error) {
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}

	clusterSize := v.geo.ClusterSize()
	buf := make([]byte, clusterSize)
	cluster := first
	read := uint32(0)

	for hops := uint32(0); hops <= v.maxClusters(); hops++ {
		if cluster < 2 {
			return nil, checkpoint.From(ErrCorrupted)
		}

		if err := v.readCluster(cluster, buf); err != nil {
			return nil, err
		}

		n := size - read
		if n > clusterSize {
			n = clusterSize
		}
		copy(out[read:], buf[:n])
		read += n

		if read == size {
			return out, nil
		}

		next, err := v.readFATEntry(cluster)
		if err != nil {
			return nil, err
		}
		if !next.IsNextCluster() {
			return nil, checkpoint.From(ErrCorrupted)
		}

		cluster = next.Value()
	}

	return nil, checkpoint.From(ErrCorrupted)
}
