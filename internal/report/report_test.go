package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/reconcile/reconcile/internal/store"
)

func openTest(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGenerateReportsWritesDetailAndSummary(t *testing.T) {
	s := openTest(t)
	const provider = store.Provider("spotify")
	if err := s.UpsertTrack(&store.Track{Provider: provider, ID: "t1", Name: "Song", ArtistDisplay: "Artist", Normalized: "artist song"}); err != nil {
		t.Fatal(err)
	}
	fileID, _, err := s.UpsertFile(&store.LibraryFile{Path: "/music/song.mp3", Normalized: "artist song", Hash: "h"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertMatch(&store.Match{Provider: provider, TrackID: "t1", FileID: fileID, Score: 95, Confidence: store.Certain}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPlaylist(&store.Playlist{Provider: provider, ID: "p1", Name: "Playlist One"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplacePlaylistTracks(provider, "p1", []store.PlaylistEntry{{TrackID: "t1", AddedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()
	if err := GenerateReports(s, Config{Provider: provider, OutDir: outDir}, nil); err != nil {
		t.Fatal(err)
	}

	detail, err := os.ReadFile(filepath.Join(outDir, "Playlist One.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(detail), "CERTAIN") {
		t.Fatalf("expected confidence tier in detail report, got:\n%s", detail)
	}

	summary, err := os.ReadFile(filepath.Join(outDir, summaryFilename))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(summary), "CERTAIN,1") {
		t.Fatalf("expected tier tally in summary, got:\n%s", summary)
	}
}

func TestGenerateReportsWritesAnalyticalReports(t *testing.T) {
	s := openTest(t)
	const provider = store.Provider("spotify")

	durMS := 200000
	if err := s.UpsertTrack(&store.Track{
		Provider: provider, ID: "t1", Name: "Unmatched Song", ArtistDisplay: "Some Artist",
		Album: "Some Album", DurationMS: &durMS, Normalized: "some artist unmatched song",
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPlaylist(&store.Playlist{Provider: provider, ID: "p1", Name: "Playlist One"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplacePlaylistTracks(provider, "p1", []store.PlaylistEntry{{TrackID: "t1", AddedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertLikedEntry(provider, &store.LikedEntry{TrackID: "t1", AddedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()
	if err := GenerateReports(s, Config{Provider: provider, OutDir: outDir}, nil); err != nil {
		t.Fatal(err)
	}

	unmatchedTracks, err := os.ReadFile(filepath.Join(outDir, "unmatched_tracks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(unmatchedTracks), "Unmatched Song") || !strings.Contains(string(unmatchedTracks), "yes") {
		t.Fatalf("expected unmatched track and liked flag, got:\n%s", unmatchedTracks)
	}

	unmatchedAlbums, err := os.ReadFile(filepath.Join(outDir, "unmatched_albums.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(unmatchedAlbums), "Some Album") {
		t.Fatalf("expected unmatched album, got:\n%s", unmatchedAlbums)
	}

	coverage, err := os.ReadFile(filepath.Join(outDir, "playlist_coverage.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(coverage), "Playlist One") || !strings.Contains(string(coverage), "Liked Songs") {
		t.Fatalf("expected both a real and the virtual liked playlist row, got:\n%s", coverage)
	}
}

func TestGenerateHTMLIsNotImplemented(t *testing.T) {
	s := openTest(t)
	if err := GenerateHTML(s, Config{Provider: "spotify", OutDir: t.TempDir()}, nil); err != ErrNotImplemented {
		t.Fatalf("got %v, want ErrNotImplemented", err)
	}
}
