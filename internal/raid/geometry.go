package raid

// address is the physical location a logical sector maps to: the data
// device carrying it, the physical row (same row index on every device),
// and the device holding that row's parity.
type address struct {
	dataDev   int
	parityDev int
	row       int
}

// locate computes the (device, physical sector, parity device) mapping for
// logical sector l under left-symmetric RAID-5: parity rotates one device
// per row, and the column layout skips over the parity device.
//
// This is the single source of truth for the mapping; every other
// component in this package must go through it rather than recomputing
// the arithmetic inline.
func locate(devices int, l int) address {
	cols := devices - 1
	row := l / cols
	col := l % cols
	parityDev := row % devices

	dataDev := col
	if col >= parityDev {
		dataDev = col + 1
	}

	return address{dataDev: dataDev, parityDev: parityDev, row: row}
}

// logicalSize returns the logical sector capacity of an array with the
// given geometry: one column's worth of parity is removed per row, and the
// last two physical sectors (service record + reserved) are excluded.
func logicalSize(devices, sectors int) int {
	if sectors < 2 {
		return 0
	}
	return (devices - 1) * (sectors - 2)
}
