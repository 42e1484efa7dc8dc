// Package blockfile is a concrete raid.BlockDevice backed by plain OS
// files, one per underlying device. It exists so cmd/raid5ctl has
// something real to point the volume manager at; the core itself never
// imports this package.
package blockfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// SectorSize mirrors raid.SectorSize; duplicated here to avoid this leaf
// package depending on the core (dependency order: blockfile has no
// reason to import raid, only to satisfy its BlockDevice interface
// structurally).
const SectorSize = 512

// Set is a fixed-size collection of device files addressed by index,
// implementing the raid.BlockDevice shape (Read/Write by device index).
type Set struct {
	files []*os.File
}

// Open opens (or creates, per flag) every path in paths as a device file.
// The caller is responsible for ensuring each file is at least
// sectors*SectorSize bytes (Create below can do this for fresh files).
func Open(paths []string, flag int, perm os.FileMode) (*Set, error) {
	files := make([]*os.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.OpenFile(p, flag, perm)
		if err != nil {
			closeAll(files)
			return nil, fmt.Errorf("blockfile: open %s: %w", p, err)
		}
		files = append(files, f)
	}
	return &Set{files: files}, nil
}

// Create truncates/extends every path to sectors*SectorSize zeroed bytes
// and returns a Set opened over them, ready for raid.Create.
func Create(paths []string, sectors int) (*Set, error) {
	size := int64(sectors) * SectorSize
	files := make([]*os.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			closeAll(files)
			return nil, fmt.Errorf("blockfile: create %s: %w", p, err)
		}
		if err := f.Truncate(size); err != nil {
			closeAll(files)
			return nil, fmt.Errorf("blockfile: truncate %s: %w", p, err)
		}
		files = append(files, f)
	}
	return &Set{files: files}, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// Close closes every underlying file.
func (s *Set) Close() error {
	var first error
	for _, f := range s.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Read implements raid.BlockDevice. It uses pread(2) via golang.org/x/sys
// so concurrent readers (e.g. a status-stream Stat of the same file) never
// race the device's shared file offset, and a short read — including one
// caused by the file simply not existing anymore — degrades to a partial
// transfer count rather than a panic or an unbounded retry.
func (s *Set) Read(deviceIdx, firstSector int, buf []byte, count int) (int, error) {
	f, ok := s.file(deviceIdx)
	if !ok {
		return 0, fmt.Errorf("blockfile: device %d out of range", deviceIdx)
	}

	want := count * SectorSize
	if len(buf) < want {
		return 0, fmt.Errorf("blockfile: buffer too small: have %d want %d", len(buf), want)
	}

	n, err := unix.Pread(int(f.Fd()), buf[:want], int64(firstSector)*SectorSize)
	if err != nil {
		return 0, nil
	}
	return n / SectorSize, nil
}

// Write implements raid.BlockDevice using pwrite(2) followed by fsync(2),
// so a "successful" write is durable before it is reported as transferred
// — matching the spec's assumption that a device failure is visible at
// the call that caused it, not silently deferred to page-cache writeback.
func (s *Set) Write(deviceIdx, firstSector int, buf []byte, count int) (int, error) {
	f, ok := s.file(deviceIdx)
	if !ok {
		return 0, fmt.Errorf("blockfile: device %d out of range", deviceIdx)
	}

	want := count * SectorSize
	if len(buf) < want {
		return 0, fmt.Errorf("blockfile: buffer too small: have %d want %d", len(buf), want)
	}

	n, err := unix.Pwrite(int(f.Fd()), buf[:want], int64(firstSector)*SectorSize)
	if err != nil {
		return 0, nil
	}
	if err := unix.Fsync(int(f.Fd())); err != nil {
		return 0, nil
	}
	return n / SectorSize, nil
}

func (s *Set) file(idx int) (*os.File, bool) {
	if idx < 0 || idx >= len(s.files) {
		return nil, false
	}
	return s.files[idx], true
}

// Devices returns how many device files this set holds.
func (s *Set) Devices() int {
	return len(s.files)
}
