package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reconcile/reconcile/internal/store"
)

func openTest(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestScanFullInsertsAndSkips(t *testing.T) {
	s := openTest(t)
	dir := t.TempDir()
	writeFile(t, dir, "one.mp3", []byte("not really audio but long enough"))

	sc := New(s, zerolog.Nop())
	opts := Options{Mode: ModeFull, Roots: []string{dir}, Unbounded: true}

	res, err := sc.Scan(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 1 || res.FilesSeen != 1 {
		t.Fatalf("got %+v, want 1 inserted", res)
	}

	// Second scan over unchanged content should skip, not update.
	res2, err := sc.Scan(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res2.Skipped != 1 || res2.Inserted != 0 {
		t.Fatalf("got %+v, want 1 skip on unchanged rescan", res2)
	}
}

func TestScanDeletesOrphansWhenUnbounded(t *testing.T) {
	s := openTest(t)
	dir := t.TempDir()
	p := writeFile(t, dir, "one.mp3", []byte("some audio bytes here"))

	sc := New(s, zerolog.Nop())
	if _, err := sc.Scan(context.Background(), Options{Mode: ModeFull, Roots: []string{dir}, Unbounded: true}); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}

	res, err := sc.Scan(context.Background(), Options{Mode: ModeFull, Roots: []string{dir}, Unbounded: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Deleted != 1 {
		t.Fatalf("got %+v, want 1 deleted orphan", res)
	}

	files, err := s.AllFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no remaining rows, got %d", len(files))
	}
}

func TestScanSinceNeverDeletes(t *testing.T) {
	s := openTest(t)
	dir := t.TempDir()
	p := writeFile(t, dir, "one.mp3", []byte("some audio bytes here"))

	sc := New(s, zerolog.Nop())
	if _, err := sc.Scan(context.Background(), Options{Mode: ModeFull, Roots: []string{dir}, Unbounded: true}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}

	res, err := sc.Scan(context.Background(), Options{
		Mode: ModeSince, Roots: []string{dir}, Since: time.Now().Add(-time.Hour), Unbounded: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Deleted != 0 {
		t.Fatalf("ModeSince must never delete orphans, got %+v", res)
	}

	files, err := s.AllFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("expected the stale row to survive a Since scan, got %d rows", len(files))
	}
}
