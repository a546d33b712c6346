package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reconcile/reconcile/internal/export"
	"github.com/reconcile/reconcile/internal/match"
	"github.com/reconcile/reconcile/internal/match/score"
	"github.com/reconcile/reconcile/internal/normalize"
	"github.com/reconcile/reconcile/internal/pathnorm"
	"github.com/reconcile/reconcile/internal/report"
	"github.com/reconcile/reconcile/internal/scan"
	"github.com/reconcile/reconcile/internal/store"
)

const testProvider = store.Provider("spotify")

func openTest(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("not really audio but long enough to hash"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func newPipeline(t *testing.T, s *store.Store) *Pipeline {
	t.Helper()
	sc := scan.New(s, zerolog.Nop())
	m := match.New(s, match.Config{Provider: testProvider, Score: score.Default(), DurationToleranceSec: 2, CandidateK: 500}, zerolog.Nop())
	cfg := Config{
		Provider: testProvider,
		Export:   export.Config{Provider: testProvider, OutDir: t.TempDir(), Mode: export.ModeStrict},
		Report:   report.Config{Provider: testProvider, OutDir: t.TempDir()},
	}
	return New(s, sc, m, cfg, zerolog.Nop())
}

func TestOnLibraryChangeScansMatchesAndExports(t *testing.T) {
	s := openTest(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "song.mp3")

	_, _, combo := normalize.Normalize("Song", "Artist")
	if err := s.UpsertTrack(&store.Track{Provider: testProvider, ID: "t1", Name: "Song", ArtistDisplay: "Artist", Normalized: combo}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPlaylist(&store.Playlist{Provider: testProvider, ID: "p1", Name: "Playlist"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplacePlaylistTracks(testProvider, "p1", []store.PlaylistEntry{{TrackID: "t1", AddedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}

	p := newPipeline(t, s)
	if err := p.OnLibraryChange(context.Background(), []string{path}); err != nil {
		t.Fatal(err)
	}

	canon, err := pathnorm.Canonical(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := s.GetFileByPath(canon)
	if err != nil {
		t.Fatal(err)
	}
	if f == nil {
		t.Fatal("expected scan to have inserted the file")
	}

	m, err := s.GetMatch(testProvider, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("expected the track to have been matched")
	}

	if _, ok, err := s.GetMeta(store.MetaLastWriteSource); err != nil || !ok {
		t.Fatalf("expected last_write_source to be set, ok=%v err=%v", ok, err)
	}
}

func TestOnLibraryChangeSkipsExportWhenNothingMatched(t *testing.T) {
	s := openTest(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "unmatched.mp3")

	p := newPipeline(t, s)
	if err := p.OnLibraryChange(context.Background(), []string{path}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(p.cfg.Export.OutDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no export output, got %v", entries)
	}
}

func TestOnStoreChangeUsesPullChangedTracksThenClearsIt(t *testing.T) {
	s := openTest(t)
	dir := t.TempDir()
	writeFile(t, dir, "song.mp3")

	_, _, combo := normalize.Normalize("Song", "Artist")
	if err := s.UpsertTrack(&store.Track{Provider: testProvider, ID: "t1", Name: "Song", ArtistDisplay: "Artist", Normalized: combo}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.UpsertFile(&store.LibraryFile{Path: filepath.Join(dir, "song.mp3"), Title: "Song", Artist: "Artist", Normalized: combo}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMeta(store.MetaLastPullChangedTracks, "t1"); err != nil {
		t.Fatal(err)
	}

	p := newPipeline(t, s)
	if err := p.onStoreChange(context.Background()); err != nil {
		t.Fatal(err)
	}

	if val, ok, err := s.GetMeta(store.MetaLastPullChangedTracks); err != nil || (ok && val != "") {
		t.Fatalf("expected last_pull_changed_tracks cleared, got %q ok=%v err=%v", val, ok, err)
	}
	if source, _, _ := s.GetMeta(store.MetaLastWriteSource); source != store.WriteSourceWatchDatabase {
		t.Fatalf("got write source %q, want %q", source, store.WriteSourceWatchDatabase)
	}
}

