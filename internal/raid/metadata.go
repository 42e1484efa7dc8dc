package raid

import "encoding/binary"

// serviceRecordSector returns the physical sector holding the per-device
// service record: the last sector of the device.
func serviceRecordSector(sectors int) int {
	return sectors - 1
}

// encodeGeneration writes a generation counter into a zeroed 512-byte
// service-record sector, little-endian at offset 0 (spec.md §6).
func encodeGeneration(gen uint32) []byte {
	buf := make([]byte, SectorSize)
	binary.LittleEndian.PutUint32(buf[0:4], gen)
	return buf
}

// decodeGeneration reads the generation counter out of a service-record
// sector payload.
func decodeGeneration(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[0:4])
}

// plurality elects the value held by the largest subset of the given
// values, breaking ties by first occurrence — mirroring
// CRaidVolume::findTrueNumber in the original implementation exactly
// (a naive O(n^2) scan over n <= MaxDevices values, not worth a map for
// this size).
func plurality(values []int64) int64 {
	counts := make([]int, len(values))
	for i, v := range values {
		for j, w := range values {
			if v == w {
				counts[i]++
				_ = j
			}
		}
	}

	var result int64
	maxCount := 0
	for i, c := range counts {
		if c > maxCount {
			maxCount = c
			result = values[i]
		}
	}
	return result
}

// sentinelGeneration is the value substituted for a device whose
// service-record read fails during assemble. It joins the plurality like
// any other value, but it can only win when no real generation is held by
// more devices than failed their read; every such outcome leaves at least
// two devices dead, so the array cannot be assembled regardless of which
// value "wins".
const sentinelGeneration int64 = -1

// assembleVote reads the service record from every device, substituting
// sentinelGeneration for a device whose read fails, and elects the
// authoritative generation by plurality. It marks nothing dead itself: it
// returns the elected generation and the per-device values and read
// results, and the caller (Start) marks dead every device whose read
// failed or whose counter differs from the elected one.
func assembleVote(desc Descriptor) (elected uint32, values []int64, readErr []bool) {
	values = make([]int64, desc.Devices)
	readErr = make([]bool, desc.Devices)

	buf := make([]byte, SectorSize)
	for i := 0; i < desc.Devices; i++ {
		n, _ := desc.Dev.Read(i, serviceRecordSector(desc.Sectors), buf, 1)
		if n != 1 {
			values[i] = sentinelGeneration
			readErr[i] = true
			continue
		}
		values[i] = int64(decodeGeneration(buf))
	}

	elected = uint32(plurality(values))
	return elected, values, readErr
}
