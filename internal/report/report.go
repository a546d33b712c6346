// Package report implements the Reporter collaborator spec §4.10
// describes: per-playlist match-detail pages, a tier-count summary, and
// the analytical cross-library reports (unmatched tracks, unmatched
// albums, playlist coverage) that round out "analytical reports" (§1).
//
// Grounded on the teacher's dump_music tooling (its CSV-shaped dumps of
// song data), since nothing in the pack carries a CSV library — the
// stdlib encoding/csv writer is used directly, justified in the
// grounding ledger as a case with no ecosystem precedent in the corpus.
// HTML rendering is explicitly out of scope (spec Non-goals) and
// returns ErrNotImplemented rather than being silently half-built.
package report

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/reconcile/reconcile/internal/export"
	"github.com/reconcile/reconcile/internal/store"
)

// ErrNotImplemented is returned by GenerateHTML: HTML reporting is an
// explicit Non-goal, so the surface exists without a working body rather
// than being silently omitted.
var ErrNotImplemented = errors.New("report: HTML reporting is not implemented")

// Config configures report generation.
type Config struct {
	Provider store.Provider
	OutDir   string
}

const summaryFilename = "summary.csv"

// GenerateReports writes per-playlist detail CSVs, the tier-count
// summary, and the library-wide analytical reports (unmatched tracks,
// unmatched albums, playlist coverage). When affectedPlaylistIDs is
// non-empty, only those playlists' detail pages are rewritten; every
// other report spans the whole library and "Liked" and is always
// regenerated in full (spec §4.9 step A.4).
func GenerateReports(s *store.Store, cfg Config, affectedPlaylistIDs []string) error {
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return err
	}

	ids := affectedPlaylistIDs
	if len(ids) == 0 {
		all, err := s.AllPlaylists(cfg.Provider)
		if err != nil {
			return err
		}
		ids = make([]string, len(all))
		for i, p := range all {
			ids[i] = p.ID
		}
	}

	for _, id := range ids {
		if err := detailReport(s, cfg, id); err != nil {
			return err
		}
	}
	if err := summaryReport(s, cfg); err != nil {
		return err
	}
	if err := unmatchedTracksReport(s, cfg); err != nil {
		return err
	}
	if err := unmatchedAlbumsReport(s, cfg); err != nil {
		return err
	}
	return playlistCoverageReport(s, cfg)
}

func detailReport(s *store.Store, cfg Config, playlistID string) error {
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

	f, err := os.Create(filepath.Join(cfg.OutDir, sanitize(p.Name)+".csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"track_id", "title", "artist", "matched_path", "confidence", "score"}); err != nil {
		return err
	}

	for _, e := range entries {
		t, err := s.GetTrack(cfg.Provider, e.TrackID)
		if err != nil {
			return err
		}
		if t == nil {
			continue
		}
		row := []string{t.ID, t.Name, t.ArtistDisplay, "", "", ""}
		m, err := s.GetMatch(cfg.Provider, e.TrackID)
		if err != nil {
			return err
		}
		if m != nil {
			file, err := s.GetFile(m.FileID)
			if err != nil {
				return err
			}
			if file != nil {
				row[3] = file.Path
			}
			row[4] = string(m.Confidence)
			row[5] = strconv.FormatFloat(m.Score, 'f', 1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func summaryReport(s *store.Store, cfg Config) error {
	tc, err := s.TierCounts(cfg.Provider)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(cfg.OutDir, summaryFilename))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"tier", "count"}); err != nil {
		return err
	}
	rows := [][2]interface{}{
		{"MANUAL", tc.Manual}, {"CERTAIN", tc.Certain}, {"HIGH", tc.High},
		{"MEDIUM", tc.Medium}, {"LOW", tc.Low},
	}
	for _, r := range rows {
		if err := w.Write([]string{r[0].(string), strconv.Itoa(r[1].(int))}); err != nil {
			return err
		}
	}
	return w.Error()
}

// unmatchedTracksReport lists every remote track with no local match,
// ranked by how many playlists it would affect.
func unmatchedTracksReport(s *store.Store, cfg Config) error {
	tracks, err := s.UnmatchedTracks(cfg.Provider)
	if err != nil {
		return err
	}

	type row struct {
		t             *store.Track
		playlistCount int
		liked         bool
	}
	rows := make([]row, 0, len(tracks))
	for _, t := range tracks {
		playlists, err := s.PlaylistsContainingTracks(cfg.Provider, []string{t.ID})
		if err != nil {
			return err
		}
		liked, err := s.AnyLiked(cfg.Provider, []string{t.ID})
		if err != nil {
			return err
		}
		rows = append(rows, row{t: t, playlistCount: len(playlists), liked: liked})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].playlistCount != rows[j].playlistCount {
			return rows[i].playlistCount > rows[j].playlistCount
		}
		if rows[i].t.ArtistDisplay != rows[j].t.ArtistDisplay {
			return rows[i].t.ArtistDisplay < rows[j].t.ArtistDisplay
		}
		if rows[i].t.Album != rows[j].t.Album {
			return rows[i].t.Album < rows[j].t.Album
		}
		return rows[i].t.Name < rows[j].t.Name
	})

	f, err := os.Create(filepath.Join(cfg.OutDir, "unmatched_tracks.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"track_id", "title", "artist", "album", "duration", "year", "playlists", "liked"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.t.ID, r.t.Name, r.t.ArtistDisplay, r.t.Album,
			formatDurationMS(r.t.DurationMS), formatYear(r.t.Year),
			strconv.Itoa(r.playlistCount), formatLiked(r.liked),
		}); err != nil {
			return err
		}
	}
	return w.Error()
}

// unmatchedAlbumsReport groups unmatched tracks by (artist, album) so a
// whole missing album stands out instead of being lost among individual
// track rows.
func unmatchedAlbumsReport(s *store.Store, cfg Config) error {
	tracks, err := s.UnmatchedTracks(cfg.Provider)
	if err != nil {
		return err
	}

	type album struct {
		artist, name string
		trackCount   int
		playlists    map[string]bool
		liked        bool
		trackNames   []string
	}
	byKey := map[string]*album{}
	var order []string
	for _, t := range tracks {
		if t.ArtistDisplay == "" || t.Album == "" {
			continue
		}
		key := t.ArtistDisplay + "\x00" + t.Album
		a, ok := byKey[key]
		if !ok {
			a = &album{artist: t.ArtistDisplay, name: t.Album, playlists: map[string]bool{}}
			byKey[key] = a
			order = append(order, key)
		}
		a.trackCount++
		a.trackNames = append(a.trackNames, t.Name)
		playlists, err := s.PlaylistsContainingTracks(cfg.Provider, []string{t.ID})
		if err != nil {
			return err
		}
		for _, p := range playlists {
			a.playlists[p] = true
		}
		if liked, err := s.AnyLiked(cfg.Provider, []string{t.ID}); err != nil {
			return err
		} else if liked {
			a.liked = true
		}
	}

	albums := make([]*album, 0, len(order))
	for _, key := range order {
		albums = append(albums, byKey[key])
	}
	sort.SliceStable(albums, func(i, j int) bool {
		if len(albums[i].playlists) != len(albums[j].playlists) {
			return len(albums[i].playlists) > len(albums[j].playlists)
		}
		if albums[i].trackCount != albums[j].trackCount {
			return albums[i].trackCount > albums[j].trackCount
		}
		if albums[i].artist != albums[j].artist {
			return albums[i].artist < albums[j].artist
		}
		return albums[i].name < albums[j].name
	})

	f, err := os.Create(filepath.Join(cfg.OutDir, "unmatched_albums.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"artist", "album", "track_count", "playlist_count", "liked", "tracks"}); err != nil {
		return err
	}
	for _, a := range albums {
		if err := w.Write([]string{
			a.artist, a.name, strconv.Itoa(a.trackCount), strconv.Itoa(len(a.playlists)),
			formatLiked(a.liked), strings.Join(a.trackNames, "; "),
		}); err != nil {
			return err
		}
	}
	return w.Error()
}

const likedPlaylistDisplayName = "Liked Songs"

// playlistCoverageReport tallies match coverage per playlist, including
// the virtual "Liked Songs" playlist, sorted worst-covered first.
func playlistCoverageReport(s *store.Store, cfg Config) error {
	playlists, err := s.AllPlaylists(cfg.Provider)
	if err != nil {
		return err
	}

	type row struct {
		id, name, owner string
		total, matched  int
	}
	var rows []row
	for _, p := range playlists {
		entries, err := s.PlaylistTracks(cfg.Provider, p.ID)
		if err != nil {
			return err
		}
		matched := 0
		for _, e := range entries {
			m, err := s.GetMatch(cfg.Provider, e.TrackID)
			if err != nil {
				return err
			}
			if m != nil {
				matched++
			}
		}
		rows = append(rows, row{id: p.ID, name: p.Name, owner: p.OwnerDisplayName, total: len(entries), matched: matched})
	}

	liked, err := s.AllLikedEntries(cfg.Provider)
	if err != nil {
		return err
	}
	if len(liked) > 0 {
		matched := 0
		for _, e := range liked {
			m, err := s.GetMatch(cfg.Provider, e.TrackID)
			if err != nil {
				return err
			}
			if m != nil {
				matched++
			}
		}
		rows = append(rows, row{id: export.LikedPlaylistID, name: likedPlaylistDisplayName, owner: "", total: len(liked), matched: matched})
	}

	coverage := func(r row) float64 {
		if r.total == 0 {
			return 0
		}
		return float64(r.matched) / float64(r.total) * 100
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ci, cj := coverage(rows[i]), coverage(rows[j])
		if ci != cj {
			return ci < cj
		}
		return rows[i].total > rows[j].total
	})

	f, err := os.Create(filepath.Join(cfg.OutDir, "playlist_coverage.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"playlist_id", "playlist_name", "owner", "total_tracks", "matched_tracks", "missing_tracks", "coverage_percent"}); err != nil {
		return err
	}
	for _, r := range rows {
		owner := r.owner
		if owner == "" {
			owner = "Unknown"
		}
		if err := w.Write([]string{
			r.id, r.name, owner, strconv.Itoa(r.total), strconv.Itoa(r.matched),
			strconv.Itoa(r.total - r.matched), strconv.FormatFloat(coverage(r), 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatDurationMS(ms *int) string {
	if ms == nil {
		return ""
	}
	secs := *ms / 1000
	return strconv.Itoa(secs/60) + ":" + fmtTwoDigits(secs%60)
}

func fmtTwoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func formatYear(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}

func formatLiked(liked bool) string {
	if liked {
		return "yes"
	}
	return ""
}

// GenerateHTML would render browsable HTML reports; it's an explicit
// Non-goal and always fails.
func GenerateHTML(*store.Store, Config, []string) error {
	return ErrNotImplemented
}

var filenameReplacer = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "'", "<", "-", ">", "-", "|", "-")

func sanitize(name string) string {
	return filenameReplacer.Replace(name)
}
