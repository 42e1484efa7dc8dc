package devicewatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherSignalsReplacementAfterRemoval(t *testing.T) {
	dir := t.TempDir()
	devicePath := filepath.Join(dir, "d1")
	if err := os.WriteFile(devicePath, []byte("x"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	w := New(dir, []string{"d1"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register with the filesystem before
	// generating events.
	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(devicePath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(devicePath, []byte("y"), 0o600); err != nil {
		t.Fatalf("recreate: %v", err)
	}

	select {
	case name := <-w.Replacements():
		if name != "d1" {
			t.Fatalf("replacement signal for %q, want d1", name)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for replacement signal")
	}

	cancel()
	<-done
}

func TestWatcherIgnoresUntrackedFiles(t *testing.T) {
	dir := t.TempDir()

	w := New(dir, []string{"d1"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	other := filepath.Join(dir, "unrelated")
	os.WriteFile(other, []byte("z"), 0o600)
	os.Remove(other)
	os.WriteFile(other, []byte("z2"), 0o600)

	select {
	case name := <-w.Replacements():
		t.Fatalf("unexpected replacement signal for untracked file %q", name)
	case <-ctx.Done():
		// expected: no signal for an untracked file
	}
}
