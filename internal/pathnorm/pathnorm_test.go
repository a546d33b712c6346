package pathnorm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalIdempotent(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	once, err := Canonical(p)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Canonical(once)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Errorf("Canonical(%q) = %q, Canonical(that) = %q", p, once, twice)
	}
}

func TestNormalizeDriveLetter(t *testing.T) {
	if got := normalizeDriveLetter(`c:\music\song.mp3`); got != `C:\music\song.mp3` {
		t.Errorf("got %q", got)
	}
	if got := normalizeDriveLetter("/music/song.mp3"); got != "/music/song.mp3" {
		t.Errorf("got %q", got)
	}
}
