package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"), 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intp(n int) *int { return &n }

func TestTrackRoundTrip(t *testing.T) {
	s := openTest(t)
	year := 2020
	isrc := "USABC1234567"
	dur := 180000
	track := &Track{
		Provider: "spotify", ID: "t1", Name: "Song", ArtistDisplay: "Artist",
		Album: "Album", Year: &year, ISRC: &isrc, DurationMS: &dur, Normalized: "artist song",
	}
	if err := s.UpsertTrack(track); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetTrack("spotify", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != track.Name || *got.Year != year || *got.ISRC != isrc {
		t.Fatalf("got %+v, want %+v", got, track)
	}
}

func TestReplacePlaylistTracksAtomic(t *testing.T) {
	s := openTest(t)
	entries := []PlaylistEntry{
		{TrackID: "a", AddedAt: time.Unix(1000, 0)},
		{TrackID: "b", AddedAt: time.Unix(1001, 0)},
	}
	if err := s.ReplacePlaylistTracks("spotify", "p1", entries); err != nil {
		t.Fatal(err)
	}
	got, err := s.PlaylistTracks("spotify", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].TrackID != "a" || got[1].TrackID != "b" {
		t.Fatalf("got %+v", got)
	}

	// Replacing with fewer entries must leave a dense 0..N-1 sequence,
	// not stale rows from the previous call.
	if err := s.ReplacePlaylistTracks("spotify", "p1", []PlaylistEntry{{TrackID: "c", AddedAt: time.Unix(1002, 0)}}); err != nil {
		t.Fatal(err)
	}
	got, err = s.PlaylistTracks("spotify", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].TrackID != "c" {
		t.Fatalf("got %+v, want single entry c", got)
	}
}

func TestMatchCascadeDeleteOnFileRemoval(t *testing.T) {
	s := openTest(t)
	track := &Track{Provider: "spotify", ID: "t1", Name: "Song", ArtistDisplay: "Artist", Normalized: "x"}
	if err := s.UpsertTrack(track); err != nil {
		t.Fatal(err)
	}
	id, _, err := s.UpsertFile(&LibraryFile{Path: "/music/a.mp3", Size: 1, MTime: 1, Hash: "h", Normalized: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertMatch(&Match{Provider: "spotify", TrackID: "t1", FileID: id, Score: 1, Method: "exact", Confidence: Certain}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteFile(id); err != nil {
		t.Fatal(err)
	}
	m, err := s.GetMatch("spotify", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Fatalf("expected match to cascade-delete, got %+v", m)
	}
}

func TestManualMatchPreservedByFileIDDeletion(t *testing.T) {
	s := openTest(t)
	id, _, err := s.UpsertFile(&LibraryFile{Path: "/music/a.mp3", Size: 1, MTime: 1, Hash: "h", Normalized: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertMatch(&Match{Provider: "spotify", TrackID: "t1", FileID: id, Score: 1, Method: "manual", Confidence: Manual}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMatchesByFileIDs([]int64{id}, true); err != nil {
		t.Fatal(err)
	}
	m, err := s.GetMatch("spotify", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("expected MANUAL match to survive DeleteMatchesByFileIDs with preserveManual=true")
	}
}

func TestMetaGetSet(t *testing.T) {
	s := openTest(t)
	if _, ok, err := s.GetMeta("missing"); err != nil || ok {
		t.Fatalf("expected missing key to be absent, ok=%v err=%v", ok, err)
	}
	if err := s.SetMeta(MetaLastScanTime, "1234"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.GetMeta(MetaLastScanTime)
	if err != nil || !ok || v != "1234" {
		t.Fatalf("got %q, %v, %v", v, ok, err)
	}
}

func TestUnmatchedTracksAndFiles(t *testing.T) {
	s := openTest(t)
	if err := s.UpsertTrack(&Track{Provider: "spotify", ID: "t1", Normalized: "x"}); err != nil {
		t.Fatal(err)
	}
	unmatched, err := s.UnmatchedTracks("spotify")
	if err != nil {
		t.Fatal(err)
	}
	if len(unmatched) != 1 {
		t.Fatalf("got %d unmatched tracks, want 1", len(unmatched))
	}

	id, _, err := s.UpsertFile(&LibraryFile{Path: "/a.mp3", Size: 1, MTime: 1, Hash: "h", Normalized: "x"})
	if err != nil {
		t.Fatal(err)
	}
	files, err := s.UnmatchedFiles()
	if err != nil || len(files) != 1 || files[0].ID != id {
		t.Fatalf("got %+v, err %v", files, err)
	}
}

func TestTierCounts(t *testing.T) {
	s := openTest(t)
	id, _, err := s.UpsertFile(&LibraryFile{Path: "/a.mp3", Size: 1, MTime: 1, Hash: "h", Normalized: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertMatch(&Match{Provider: "spotify", TrackID: "t1", FileID: id, Score: 1, Confidence: Certain}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertMatch(&Match{Provider: "spotify", TrackID: "t2", FileID: id, Score: 0.7, Confidence: Medium}); err != nil {
		t.Fatal(err)
	}
	tc, err := s.TierCounts("spotify")
	if err != nil {
		t.Fatal(err)
	}
	if tc.Certain != 1 || tc.Medium != 1 {
		t.Fatalf("got %+v", tc)
	}
}
