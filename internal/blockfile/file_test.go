package blockfile

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestCreateReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "d0"),
		filepath.Join(dir, "d1"),
		filepath.Join(dir, "d2"),
	}

	set, err := Create(paths, 2048)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer set.Close()

	if set.Devices() != 3 {
		t.Fatalf("Devices() = %d, want 3", set.Devices())
	}

	data := bytes.Repeat([]byte{0xAB}, SectorSize)
	n, err := set.Write(1, 5, data, 1)
	if err != nil || n != 1 {
		t.Fatalf("Write = (%d, %v), want (1, nil)", n, err)
	}

	readBack := make([]byte, SectorSize)
	n, err = set.Read(1, 5, readBack, 1)
	if err != nil || n != 1 {
		t.Fatalf("Read = (%d, %v), want (1, nil)", n, err)
	}
	if !bytes.Equal(readBack, data) {
		t.Fatal("read-after-write mismatch")
	}

	// An untouched sector on a freshly-created device reads back zero.
	other := make([]byte, SectorSize)
	set.Read(1, 6, other, 1)
	for _, b := range other {
		if b != 0 {
			t.Fatal("freshly created device sector should be zeroed")
		}
	}
}

func TestReadWriteOutOfRangeDevice(t *testing.T) {
	dir := t.TempDir()
	set, err := Create([]string{filepath.Join(dir, "d0")}, 2048)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer set.Close()

	buf := make([]byte, SectorSize)
	if _, err := set.Read(5, 0, buf, 1); err == nil {
		t.Fatal("expected error for out-of-range device index")
	}
	if _, err := set.Write(5, 0, buf, 1); err == nil {
		t.Fatal("expected error for out-of-range device index")
	}
}
