package raid

import (
	"sync"

	"github.com/rs/zerolog"
)

// Volume is a single software RAID-5 array. The scheduling model is
// single-threaded cooperative (spec.md §5): every exported method holds
// Volume.mu for its whole duration, so concurrent calls run one at a time
// and a concurrent observer can read Status() safely. Events() is served
// by the event log's own lock.
type Volume struct {
	mu sync.RWMutex

	desc Descriptor
	gen  uint32
	live *liveness

	// Logger is optional; a disabled logger is used when nil. Diagnostics
	// only — the core never changes behavior based on whether logging is
	// enabled.
	Logger *zerolog.Logger

	events *eventLog
	m      *metrics

	lastErr error
}

// LastError returns the VolumeError from the most recent programmer
// misuse — invalid geometry at Start, or an operation attempted on a
// stopped or failed volume — or nil if there has been none since the last
// successful Start. Only a successful Start clears it; a later successful
// Read or Write leaves it in place.
func (v *Volume) LastError() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}

// New returns a Volume ready for Create/Start. It does no I/O.
func New() *Volume {
	return &Volume{
		events: newEventLog(64),
		m:      newMetrics(),
	}
}

func (v *Volume) logger() *zerolog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	l := zerolog.Nop()
	return &l
}

// Create performs one-shot initialization of fresh devices: it writes an
// initial generation counter of 1 to every device's service record. It
// must be called before any Start, and only once per set of devices.
// Underlying data sectors are assumed to already be zero, which trivially
// satisfies the parity invariant (spec.md §4.2).
func Create(desc Descriptor) bool {
	if !desc.validate() {
		return false
	}

	rec := encodeGeneration(1)
	for i := 0; i < desc.Devices; i++ {
		n, _ := desc.Dev.Write(i, serviceRecordSector(desc.Sectors), rec, 1)
		if n != 1 {
			return false
		}
	}
	return true
}

// Start assembles the volume: it reads every device's service record,
// elects the authoritative generation counter by plurality vote, marks
// stragglers dead, and derives the resulting status (spec.md §4.2, §4.3).
func (v *Volume) Start(desc Descriptor) Status {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !desc.validate() {
		v.desc = Descriptor{}
		v.live = newLiveness(0)
		v.live.status = Failed
		v.lastErr = &VolumeError{Op: "start", Device: -1, Err: errInvalidGeometry}
		return Failed
	}

	elected, values, readErr := assembleVote(desc)

	live := newLiveness(desc.Devices)
	for i := 0; i < desc.Devices; i++ {
		if readErr[i] || values[i] != int64(elected) {
			live.alive[i] = false
		}
	}
	live.status = live.assembleStatus()

	v.desc = desc
	v.gen = elected
	v.live = live
	v.lastErr = nil

	v.logger().Info().
		Int("devices", desc.Devices).
		Uint32("generation", elected).
		Str("status", live.status.String()).
		Msg("raid volume assembled")
	v.m.setStatus(live.status)
	v.emit(eventAssembled, -1, live.status)

	return live.status
}

// Stop increments the generation counter and persists it to every
// currently-live device (write failures here are tolerated silently — the
// device just drops out of the next assemble's plurality), then returns
// to STOPPED.
func (v *Volume) Stop() Status {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.live == nil || v.live.status == Stopped {
		v.live = newLiveness(0)
		v.live.status = Stopped
		return Stopped
	}

	v.gen++
	rec := encodeGeneration(v.gen)
	for i := 0; i < v.desc.Devices; i++ {
		if !v.live.alive[i] {
			continue
		}
		_, _ = v.desc.Dev.Write(i, serviceRecordSector(v.desc.Sectors), rec, 1)
	}

	v.logger().Info().Uint32("generation", v.gen).Msg("raid volume stopped")
	prevStatus := v.live.status
	v.live.status = Stopped
	v.m.setStatus(Stopped)
	v.emit(eventStopped, -1, prevStatus)

	return Stopped
}

// Status returns the current array status.
func (v *Volume) Status() Status {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.live == nil {
		return Stopped
	}
	return v.live.status
}

// Size returns the logical sector capacity of the array: (D-1)*(S-2).
// It returns 0 while the volume is stopped.
func (v *Volume) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.live == nil || v.live.status == Stopped {
		return 0
	}
	return logicalSize(v.desc.Devices, v.desc.Sectors)
}
