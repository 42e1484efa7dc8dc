package raid

// xorInto XORs src into dst in place; both must be SectorSize bytes.
func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// markDeviceDead marks idx dead, advances the state machine, updates
// metrics, logs, and emits an event. It is the single place every I/O
// path routes a device fault through.
func (v *Volume) markDeviceDead(idx int) {
	if !v.live.alive[idx] {
		return
	}
	prev := v.live.status
	v.live.markDead(idx)

	v.logger().Warn().Int("device", idx).Str("from", prev.String()).Str("to", v.live.status.String()).Msg("raid device marked dead")
	v.m.setDeviceAlive(idx, false)
	v.m.setStatus(v.live.status)
	v.emit(eventDeviceDead, idx, v.live.status)

	switch v.live.status {
	case Degraded:
		v.emit(eventDegraded, idx, v.live.status)
	case Failed:
		v.emit(eventFailed, idx, v.live.status)
	}
}

// reconstruct rebuilds the sector at (targetDev, row) by XOR-ing the same
// row across every other device. Requires every other device to be alive;
// a second fault aborts and marks the newly-discovered dead device, which
// drives the state machine to Failed.
func (v *Volume) reconstruct(targetDev, row int, dst []byte) bool {
	for i := range dst {
		dst[i] = 0
	}

	scratch := make([]byte, SectorSize)
	for j := 0; j < v.desc.Devices; j++ {
		if j == targetDev {
			continue
		}
		if !v.live.alive[j] {
			return false
		}
		n, _ := v.desc.Dev.Read(j, row, scratch, 1)
		if n != 1 {
			v.markDeviceDead(j)
			return false
		}
		xorInto(dst, scratch)
	}

	v.m.reconstructs.Inc()
	return true
}

// readLogicalSector reads one logical sector into dst, reconstructing from
// parity when the data device is already dead or just died on this call.
// Returns false only when a second device fault makes the sector
// unrecoverable (the array transitions to Failed).
func (v *Volume) readLogicalSector(l int, dst []byte) bool {
	addr := locate(v.desc.Devices, l)

	if !v.live.alive[addr.dataDev] {
		return v.reconstruct(addr.dataDev, addr.row, dst)
	}

	n, _ := v.desc.Dev.Read(addr.dataDev, addr.row, dst, 1)
	if n == 1 {
		return true
	}

	wasOK := v.live.status == OK
	v.markDeviceDead(addr.dataDev)
	if !wasOK {
		return false
	}
	return v.reconstruct(addr.dataDev, addr.row, dst)
}

// Read services count consecutive logical sectors starting at first,
// filling buf (len(buf) must be at least count*SectorSize). It fails
// immediately on a stopped or already-failed array; otherwise it processes
// sectors in order and stops at the first unrecoverable one.
func (v *Volume) Read(first int, buf []byte, count int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if count == 0 {
		return true
	}
	if v.live == nil || v.live.status == Stopped || v.live.status == Failed {
		v.lastErr = &VolumeError{Op: "read", Device: -1, Err: errNotRunning}
		return false
	}

	for i := 0; i < count; i++ {
		dst := buf[i*SectorSize : (i+1)*SectorSize]
		if !v.readLogicalSector(first+i, dst) {
			return false
		}
	}

	v.m.reads.Add(float64(count))
	return true
}

// writeLogicalSector performs the read-modify-write parity update for one
// logical sector: newParity = oldParity XOR oldData XOR newData. Per
// spec.md §9's documented tradeoff, a parity fault does not block the
// data write — the array prefers progress over refusing the call, leaving
// parity stale for that row until the next write to it.
func (v *Volume) writeLogicalSector(l int, newData []byte) bool {
	addr := locate(v.desc.Devices, l)

	oldData := make([]byte, SectorSize)
	if !v.readLogicalSector(l, oldData) {
		return false
	}

	if v.live.alive[addr.parityDev] {
		oldParity := make([]byte, SectorSize)
		n, _ := v.desc.Dev.Read(addr.parityDev, addr.row, oldParity, 1)
		if n != 1 {
			v.markDeviceDead(addr.parityDev)
		} else {
			newParity := make([]byte, SectorSize)
			copy(newParity, oldParity)
			xorInto(newParity, oldData)
			xorInto(newParity, newData)

			wn, _ := v.desc.Dev.Write(addr.parityDev, addr.row, newParity, 1)
			if wn != 1 {
				v.markDeviceDead(addr.parityDev)
			}
		}
	}

	if v.live.alive[addr.dataDev] {
		wn, _ := v.desc.Dev.Write(addr.dataDev, addr.row, newData, 1)
		if wn != 1 {
			v.markDeviceDead(addr.dataDev)
		}
	}

	return v.live.status != Failed
}

// Write services count consecutive logical sectors starting at first,
// sourcing them from buf (len(buf) must be at least count*SectorSize).
// Sector i is fully processed — old data read, parity updated, data
// updated — before sector i+1 begins; no batching across sectors.
func (v *Volume) Write(first int, buf []byte, count int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if count == 0 {
		return true
	}
	if v.live == nil || v.live.status == Stopped || v.live.status == Failed {
		v.lastErr = &VolumeError{Op: "write", Device: -1, Err: errNotRunning}
		return false
	}

	for i := 0; i < count; i++ {
		src := buf[i*SectorSize : (i+1)*SectorSize]
		if !v.writeLogicalSector(first+i, src) {
			return false
		}
	}

	v.m.writes.Add(float64(count))
	return true
}
