// Package export implements the Exporter collaborator spec §4.10 and
// §6 describe: it renders matched playlists (and, optionally, "Liked
// Songs") to M3U files.
//
// Grounded on github.com/ushis/m3u (pack dependency surfaced by the
// mipimipi-muserv manifest in other_examples), a minimal M3U
// reader/writer over a slice of Tracks, which replaces a hand-rolled
// "#EXTM3U" writer the teacher never needed since it has no playlist
// export surface of its own.
package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ushis/m3u"

	"github.com/reconcile/reconcile/internal/store"
)

// Mode controls how unmatched tracks are rendered, per the M3U output
// contract in spec §6.
type Mode int

const (
	// ModeStrict omits unmatched tracks entirely.
	ModeStrict Mode = iota
	// ModeMirrored writes a relative-path pointer that may not exist.
	ModeMirrored
	// ModePlaceholder writes a sentinel path with PlaceholderExt.
	ModePlaceholder
)

// Config configures playlist export.
type Config struct {
	Provider       store.Provider
	OutDir         string
	Mode           Mode
	PlaceholderExt string // used only when Mode == ModePlaceholder
}

// LikedPlaylistID is the sentinel playlist id callers pass to
// ExportPlaylists to request that "Liked Songs" be included alongside real
// playlists. internal/report uses it as the id of the virtual "Liked
// Songs" row in its coverage report.
const LikedPlaylistID = "__liked__"

// ExportPlaylists writes M3U files for playlistIDs, or for every
// playlist (plus "Liked") when playlistIDs is nil, per spec §4.10.
func ExportPlaylists(s *store.Store, cfg Config, playlistIDs []string) error {
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return err
	}

	ids := playlistIDs
	includeLiked := len(playlistIDs) == 0
	if includeLiked {
		all, err := s.AllPlaylists(cfg.Provider)
		if err != nil {
			return err
		}
		ids = make([]string, len(all))
		for i, p := range all {
			ids[i] = p.ID
		}
	} else {
		for _, id := range playlistIDs {
			if id == LikedPlaylistID {
				includeLiked = true
			}
		}
	}

	for _, id := range ids {
		if id == LikedPlaylistID {
			continue
		}
		if err := exportOne(s, cfg, id); err != nil {
			return err
		}
	}
	if includeLiked {
		if err := exportLiked(s, cfg); err != nil {
			return err
		}
	}
	return nil
}

func exportOne(s *store.Store, cfg Config, playlistID string) error {
	p, err := s.GetPlaylist(cfg.Provider, playlistID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	entries, err := s.PlaylistTracks(cfg.Provider, playlistID)
	if err != nil {
		return err
	}
	trackIDs := make([]string, len(entries))
	for i, e := range entries {
		trackIDs[i] = e.TrackID
	}
	return writeM3U(s, cfg, sanitizeFilename(p.Name)+".m3u", trackIDs)
}

func exportLiked(s *store.Store, cfg Config) error {
	tracks, err := s.AllTracks(cfg.Provider)
	if err != nil {
		return err
	}
	allIDs := make([]string, len(tracks))
	for i, t := range tracks {
		allIDs[i] = t.ID
	}
	liked, err := s.LikedEntriesForTracks(cfg.Provider, allIDs)
	if err != nil {
		return err
	}
	trackIDs := make([]string, len(liked))
	for i, e := range liked {
		trackIDs[i] = e.TrackID
	}
	return writeM3U(s, cfg, "Liked Songs.m3u", trackIDs)
}

func writeM3U(s *store.Store, cfg Config, filename string, trackIDs []string) error {
	var tracks []*m3u.Track
	for _, id := range trackIDs {
		t, err := s.GetTrack(cfg.Provider, id)
		if err != nil {
			return err
		}
		if t == nil {
			continue
		}
		f, err := s.MatchedFileForTrack(cfg.Provider, id)
		if err != nil {
			return err
		}

		switch {
		case f != nil:
			tracks = append(tracks, &m3u.Track{
				Path: f.Path, Name: displayName(t), Duration: durationSeconds(t),
			})
		case cfg.Mode == ModeStrict:
			continue
		case cfg.Mode == ModeMirrored:
			tracks = append(tracks, &m3u.Track{
				Path: relativeGuess(t), Name: displayName(t), Duration: durationSeconds(t),
			})
		case cfg.Mode == ModePlaceholder:
			tracks = append(tracks, &m3u.Track{
				Path: sanitizeFilename(displayName(t)) + cfg.PlaceholderExt,
				Name: displayName(t), Duration: durationSeconds(t),
			})
		}
	}

	out, err := os.Create(filepath.Join(cfg.OutDir, filename))
	if err != nil {
		return err
	}
	defer out.Close()
	return m3u.Write(out, tracks)
}

func displayName(t *store.Track) string {
	return t.ArtistDisplay + " - " + t.Name
}

func durationSeconds(t *store.Track) int {
	if t.DurationMS == nil {
		return -1
	}
	return *t.DurationMS / 1000
}

// relativeGuess produces a best-effort relative path pointer for a
// mirrored unmatched track; it may not exist on disk, per the M3U
// output contract's "mirrored" mode.
func relativeGuess(t *store.Track) string {
	return sanitizeFilename(t.ArtistDisplay) + "/" + sanitizeFilename(t.Name) + ".mp3"
}

var filenameReplacer = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "'", "<", "-", ">", "-", "|", "-")

func sanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}
