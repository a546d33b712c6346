package hash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPartialSmallFile(t *testing.T) {
	p := writeTemp(t, "hello world")
	fi, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	h1, err := Partial(p, fi.Size())
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Partial(p, fi.Size())
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("hash not stable: %q vs %q", h1, h2)
	}
}

func TestPartialLargeFileConsistentWithMove(t *testing.T) {
	content := strings.Repeat("a", 200*1024) + "middle" + strings.Repeat("b", 200*1024)
	p1 := writeTemp(t, content)
	dir2 := t.TempDir()
	p2 := filepath.Join(dir2, "moved.bin")
	if err := os.WriteFile(p2, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(p1)
	if err != nil {
		t.Fatal(err)
	}
	h1, err := Partial(p1, fi.Size())
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Partial(p2, fi.Size())
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("same content at two paths produced different hashes: %q vs %q", h1, h2)
	}
}
