package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatcherDebouncesAndFilters(t *testing.T) {
	dir := t.TempDir()

	batches := make(chan []string, 10)
	w := New(Options{
		Roots:      []string{dir},
		Extensions: map[string]bool{".mp3": true},
		Debounce:   50 * time.Millisecond,
	}, zerolog.Nop())

	if err := w.Start(func(paths []string) { batches <- paths }); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// A burst of writes within the debounce window should collapse into
	// one batch; a .tmp write should never appear in it.
	write(t, dir, "a.mp3")
	write(t, dir, "a.tmp")
	write(t, dir, "b.mp3")

	select {
	case batch := <-batches:
		if len(batch) == 0 {
			t.Fatal("expected a non-empty batch")
		}
		for _, p := range batch {
			if filepath.Ext(p) == ".tmp" {
				t.Fatalf("temp extension leaked into batch: %v", batch)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced batch")
	}
}

func TestWatcherStartStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := New(Options{Roots: []string{dir}}, zerolog.Nop())
	if err := w.Start(func([]string) {}); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(func([]string) {}); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcherSkipsMissingRoot(t *testing.T) {
	w := New(Options{Roots: []string{"/does/not/exist/anywhere"}}, zerolog.Nop())
	if err := w.Start(func([]string) {}); err != nil {
		t.Fatalf("missing root must be logged and skipped, not fatal: %v", err)
	}
	w.Stop()
}

func write(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}
