// Package devicewatch watches a directory of device files for an
// off-line replacement: a device file being removed (or renamed away) and
// then recreated under the same name. A file truncated in place is not
// detected. It only signals that resync is worth
// attempting — it never touches array state itself, matching the
// teacher's pattern of keeping filesystem watchers (fsnotify, as used in
// cobaltcore-dev-prysm/pkg/producers/opslog) advisory rather than
// authoritative.
package devicewatch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// newWatcher is overridable in tests the same way the teacher's
// internal/mdadm package overrides resolveMdadmBinary etc. with
// package-level function variables.
var newWatcher = fsnotify.NewWatcher

// Watcher observes a directory and reports when a watched device path
// reappears after having been removed.
type Watcher struct {
	dir     string
	devices map[string]struct{}
	logger  *zerolog.Logger

	events chan string
}

// New creates a Watcher over dir, tracking the given device file names
// (basenames, not full paths).
func New(dir string, deviceNames []string, logger *zerolog.Logger) *Watcher {
	devices := make(map[string]struct{}, len(deviceNames))
	for _, n := range deviceNames {
		devices[n] = struct{}{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Watcher{
		dir:     dir,
		devices: devices,
		logger:  logger,
		events:  make(chan string, 16),
	}
}

// Replacements returns a channel that receives a device's basename each
// time fsnotify observes a Create event for it after having seen it
// removed — i.e. a disk swap candidate for Volume.Resync.
func (w *Watcher) Replacements() <-chan string {
	return w.events
}

// Run watches until ctx is cancelled. It is safe to run in its own
// goroutine (see cmd/raid5ctl's serve subcommand, which runs it alongside
// the metrics server under an errgroup).
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := newWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	removed := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if _, tracked := w.devices[name]; !tracked {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				removed[name] = struct{}{}
				w.logger.Warn().Str("device", name).Msg("device file disappeared")
			case ev.Op&fsnotify.Create != 0:
				if _, was := removed[name]; was {
					delete(removed, name)
					w.logger.Info().Str("device", name).Msg("device file reappeared, resync candidate")
					select {
					case w.events <- name:
					default:
					}
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("device watcher error")
		}
	}
}
