package tagreader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsMusicPath(t *testing.T) {
	for path, want := range map[string]bool{
		"/a/b.mp3": true, "/a/b.FLAC": true, "/a/b.txt": false, "/a/b": false,
	} {
		if got := IsMusicPath(path); got != want {
			t.Errorf("IsMusicPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestReadFallsBackToFilenameStem(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "My Untagged Song.mp3")
	if err := os.WriteFile(p, []byte("not really an mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	tags, err := Read(p)
	// A tag-parse error is expected and non-fatal; the caller (scanner)
	// is responsible for counting it, not treating it as fatal.
	if err == nil {
		t.Fatal("expected a tag-parse error for a non-audio file")
	}
	if tags == nil || tags.Title != "My Untagged Song" {
		t.Fatalf("got %+v, want title fallback to filename stem", tags)
	}
}
