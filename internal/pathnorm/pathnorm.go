// Package pathnorm implements the canonical path form spec §6 requires
// for library_files.path: absolute, symlink-resolved, and
// platform-normalized so that two paths are equal iff their canonical
// forms are byte-equal.
package pathnorm

import (
	"path/filepath"
	"strings"
)

// Canonical returns the canonical form of path: made absolute, symlinks
// resolved, and (on platforms with drive letters) the drive letter
// uppercased with native separators. Idempotent: Canonical(Canonical(x))
// == Canonical(x).
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// The path may not exist yet (e.g. a deletion event for a file
		// that's already gone); fall back to the absolute form so callers
		// can still key off of it.
		resolved = abs
	}
	return normalizeDriveLetter(filepath.Clean(resolved)), nil
}

// normalizeDriveLetter uppercases a leading Windows drive letter
// ("c:\foo" -> "C:\foo"). It's a no-op on POSIX paths.
func normalizeDriveLetter(path string) string {
	if len(path) >= 2 && path[1] == ':' {
		c := path[0]
		if c >= 'a' && c <= 'z' {
			return strings.ToUpper(string(c)) + path[1:]
		}
	}
	return path
}
