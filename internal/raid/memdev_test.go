package raid

// memDevice is an in-memory BlockDevice fake used across this package's
// tests to inject device faults deterministically, the same role the
// teacher's `var runCommandOutput = ...` indirection plays in
// internal/mdadm — except here the whole device is swappable rather than
// just a function, since BlockDevice is itself the capability object.
type memDevice struct {
	devices  int
	secCount int
	data     [][]byte
	dead     []bool
}

func newMemDevice(devices, secCount int) *memDevice {
	data := make([][]byte, devices)
	for i := range data {
		data[i] = make([]byte, secCount*SectorSize)
	}
	return &memDevice{
		devices:  devices,
		secCount: secCount,
		data:     data,
		dead:     make([]bool, devices),
	}
}

func (m *memDevice) Read(deviceIdx, firstSector int, buf []byte, count int) (int, error) {
	if deviceIdx < 0 || deviceIdx >= m.devices || m.dead[deviceIdx] {
		return 0, nil
	}
	src := m.data[deviceIdx][firstSector*SectorSize : (firstSector+count)*SectorSize]
	copy(buf, src)
	return count, nil
}

func (m *memDevice) Write(deviceIdx, firstSector int, buf []byte, count int) (int, error) {
	if deviceIdx < 0 || deviceIdx >= m.devices || m.dead[deviceIdx] {
		return 0, nil
	}
	dst := m.data[deviceIdx][firstSector*SectorSize : (firstSector+count)*SectorSize]
	copy(dst, buf)
	return count, nil
}

// fail marks a device as hard-dead: every subsequent Read/Write to it
// returns a short transfer, exactly as a real failed disk would.
func (m *memDevice) fail(deviceIdx int) {
	m.dead[deviceIdx] = true
}

// replace simulates an off-line disk swap: the device's contents are
// zeroed (a fresh blank disk) and it is marked alive again so a future
// assemble sees a stale-but-readable service record.
func (m *memDevice) replace(deviceIdx int) {
	for i := range m.data[deviceIdx] {
		m.data[deviceIdx][i] = 0
	}
	m.dead[deviceIdx] = false
}

func (m *memDevice) sector(deviceIdx, sector int) []byte {
	return m.data[deviceIdx][sector*SectorSize : (sector+1)*SectorSize]
}
