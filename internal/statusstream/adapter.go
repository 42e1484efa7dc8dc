package statusstream

import "github.com/mdraid5/raid5vol/internal/raid"

// VolumeSource adapts a *raid.Volume to the EventSource interface this
// package depends on, the same shape as the teacher's
// internal/adapters.StateAdapter: a thin struct translating one concrete
// type's method set into another package's narrower interface so neither
// package needs to import the other's full surface.
type VolumeSource struct {
	Volume *raid.Volume
}

// Recent implements EventSource.
func (a VolumeSource) Recent() []Event {
	return convertAll(a.Volume.Events())
}

// Subscribe implements EventSource. It spawns a small forwarding
// goroutine that translates raid.Event into statusstream.Event and exits
// when the caller invokes the returned unsubscribe func.
func (a VolumeSource) Subscribe(ch chan Event) func() {
	raidCh := make(chan raid.Event, cap(ch))
	unsub := a.Volume.Subscribe(raidCh)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-raidCh:
				if !ok {
					return
				}
				select {
				case ch <- convert(ev):
				default:
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		unsub()
		close(done)
	}
}

func convert(ev raid.Event) Event {
	return Event{
		ID:     ev.ID,
		Kind:   string(ev.Kind),
		Device: ev.Device,
		Status: ev.Status.String(),
	}
}

func convertAll(evs []raid.Event) []Event {
	out := make([]Event, len(evs))
	for i, ev := range evs {
		out[i] = convert(ev)
	}
	return out
}
