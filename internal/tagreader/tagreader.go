// Package tagreader is the audio-tag extraction adapter spec §1 describes
// as out of the reconciliation core's scope: it yields title/artist/
// album/year/duration/bitrate and an embedded ISRC (when present) for a
// path and nothing more.
//
// Grounded on github.com/dhowden/tag, the pack's consensus tag library
// (llehouerou-waves, stojg-playlist-sorter, arung-agamani-denpa-radio all
// use it), which replaces the teacher's hand-rolled derat/taglib-go +
// ID3v1/ID3v2 parsing in cmd/nup/update/mp3.go. The MPEG Xing-header
// duration/bitrate computation in duration_mp3.go is kept from the
// teacher's cmd/nup/update/scan.go almost verbatim, since dhowden/tag
// doesn't expose audio duration itself.
package tagreader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Tags holds the fields the matcher cares about. Missing numeric fields
// are nil rather than zero, so the scorer and candidate selector can tell
// "absent" from "zero".
type Tags struct {
	Title       string
	Artist      string
	Album       string
	Year        *int
	DurationSec *float64
	BitrateKbps *int
	ISRC        *string
}

// musicExtensions is the default allowed-extension set; callers
// (internal/scan) may override it.
var musicExtensions = map[string]bool{
	".mp3": true, ".flac": true, ".m4a": true, ".mp4": true,
	".ogg": true, ".opus": true, ".wav": true, ".wma": true,
}

// IsMusicPath reports whether path has a recognized audio extension.
func IsMusicPath(path string) bool {
	return musicExtensions[strings.ToLower(filepath.Ext(path))]
}

// Read extracts tags from the file at path. A missing title falls back to
// the filename stem; missing artist/album become empty strings, per spec
// §4.4. Duration and bitrate are nil when they can't be determined (every
// format but MPEG-1 Layer 3 currently), which the candidate selector
// treats as "never excludes".
func Read(path string) (*Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &Tags{}

	m, tagErr := tag.ReadFrom(f)
	if tagErr == nil {
		t.Title = m.Title()
		t.Artist = m.Artist()
		t.Album = m.Album()
		if y := m.Year(); y != 0 {
			year := y
			t.Year = &year
		}
		t.ISRC = isrcFromRaw(m.Raw())
	}

	if t.Title == "" {
		base := filepath.Base(path)
		t.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if strings.ToLower(filepath.Ext(path)) == ".mp3" {
		if dur, kbit, err := mp3DurationAndBitrate(path); err == nil {
			t.DurationSec = &dur
			t.BitrateKbps = &kbit
		}
	}

	if tagErr != nil {
		return t, fmt.Errorf("tagreader: %s: %w", path, tagErr)
	}
	return t, nil
}

// isrcRawKeys are the raw-frame keys formats use for an embedded ISRC,
// checked case-insensitively since dhowden/tag preserves each format's
// native frame names.
var isrcRawKeys = []string{"TSRC", "ISRC", "TXXX:ISRC"}

// isrcFromRaw pulls an embedded ISRC out of a tag's raw frame map, if
// present. Most audio files never carry one; the candidate selector and
// scorer already treat a nil ISRC as "no signal".
func isrcFromRaw(raw map[string]interface{}) *string {
	for _, key := range isrcRawKeys {
		for k, v := range raw {
			if !strings.EqualFold(k, key) {
				continue
			}
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				trimmed := strings.TrimSpace(s)
				return &trimmed
			}
		}
	}
	return nil
}
