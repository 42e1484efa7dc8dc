package raid

// Resync reconstructs a replaced device's full contents from its
// surviving peers. It only does anything while the array is Degraded;
// called in any other state it returns the current status unchanged
// (spec.md §6). Every physical sector is rebuilt, including the reserved
// sector. The service-record sector is written with the volume's current
// generation rather than the XOR of its peers, so the next assemble's
// plurality vote sees the replacement carrying the authoritative
// generation.
func (v *Volume) Resync() Status {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.live == nil {
		return Stopped
	}
	if v.live.status != Degraded {
		return v.live.status
	}

	target := v.live.deadDevice()
	if target < 0 {
		// Invariant violation guard: Degraded implies exactly one dead
		// device. Nothing to do.
		return v.live.status
	}

	buf := make([]byte, SectorSize)
	for r := 0; r < v.desc.Sectors; r++ {
		if !v.reconstruct(target, r, buf) {
			// reconstruct() already marked the newly-failed peer dead
			// and advanced the state machine to Failed.
			v.logger().Error().Int("device", target).Int("sector", r).Msg("resync aborted: peer read failed during reconstruction")
			v.m.resyncs.WithLabelValues("reconstruct_failed").Inc()
			v.emit(eventResyncFailed, target, v.live.status)
			return v.live.status
		}
		if r == serviceRecordSector(v.desc.Sectors) {
			copy(buf, encodeGeneration(v.gen))
		}

		n, _ := v.desc.Dev.Write(target, r, buf, 1)
		if n != 1 {
			v.logger().Warn().Int("device", target).Int("sector", r).Msg("resync aborted: replacement write failed, staying degraded")
			v.m.resyncs.WithLabelValues("write_failed").Inc()
			v.emit(eventResyncFailed, target, v.live.status)
			return v.live.status
		}
	}

	v.live.alive[target] = true
	v.live.status = OK
	v.m.setDeviceAlive(target, true)
	v.m.setStatus(OK)
	v.m.resyncs.WithLabelValues("success").Inc()

	v.logger().Info().Int("device", target).Msg("resync completed, array back to OK")
	v.emit(eventResyncDone, target, OK)

	return OK
}
