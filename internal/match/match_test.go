package match

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reconcile/reconcile/internal/match/score"
	"github.com/reconcile/reconcile/internal/normalize"
	"github.com/reconcile/reconcile/internal/store"
)

func openTest(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTrack(t *testing.T, s *store.Store, provider store.Provider, id, name, artist string) {
	t.Helper()
	_, _, combo := normalize.Normalize(name, artist)
	if err := s.UpsertTrack(&store.Track{
		Provider: provider, ID: id, Name: name, ArtistDisplay: artist, Normalized: combo,
	}); err != nil {
		t.Fatal(err)
	}
}

func seedFile(t *testing.T, s *store.Store, path, title, artist string) int64 {
	t.Helper()
	_, _, combo := normalize.Normalize(title, artist)
	id, _, err := s.UpsertFile(&store.LibraryFile{
		Path: path, Title: title, Artist: artist, Normalized: combo,
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestMatchAllPersistsBestCandidate(t *testing.T) {
	s := openTest(t)
	const provider = store.Provider("spotify")
	seedTrack(t, s, provider, "t1", "Yesterday", "The Beatles")
	seedFile(t, s, "/music/yesterday.mp3", "Yesterday", "The Beatles")

	m := New(s, Config{Provider: provider, Score: score.Default()}, zerolog.Nop())
	res, err := m.MatchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Matched != 1 || len(res.TrackIDs) != 1 || res.TrackIDs[0] != "t1" {
		t.Fatalf("got %+v, want 1 match for t1", res)
	}

	match, err := s.GetMatch(provider, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if match == nil || match.Confidence != store.Certain {
		t.Fatalf("got %+v, want a CERTAIN match", match)
	}
}

func TestMatchAllNeverOverwritesManual(t *testing.T) {
	s := openTest(t)
	const provider = store.Provider("spotify")
	seedTrack(t, s, provider, "t1", "Yesterday", "The Beatles")
	wrongFileID := seedFile(t, s, "/music/wrong.mp3", "Something Else Entirely", "Another Band")
	rightFileID := seedFile(t, s, "/music/yesterday.mp3", "Yesterday", "The Beatles")
	_ = rightFileID

	if err := s.UpsertMatch(&store.Match{
		Provider: provider, TrackID: "t1", FileID: wrongFileID, Score: 0, Method: "manual", Confidence: store.Manual,
	}); err != nil {
		t.Fatal(err)
	}

	m := New(s, Config{Provider: provider, Score: score.Default()}, zerolog.Nop())
	res, err := m.MatchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Matched != 0 {
		t.Fatalf("MatchAll must not touch a MANUAL match, got %+v", res)
	}

	match, err := s.GetMatch(provider, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if match.FileID != wrongFileID || match.Confidence != store.Manual {
		t.Fatalf("MANUAL match was overwritten: %+v", match)
	}
}

func TestMatchFilesRestrictsPoolAndPreservesManual(t *testing.T) {
	s := openTest(t)
	const provider = store.Provider("spotify")
	seedTrack(t, s, provider, "t1", "Yesterday", "The Beatles")
	seedTrack(t, s, provider, "t2", "Let It Be", "The Beatles")
	manualFileID := seedFile(t, s, "/music/manual.mp3", "Let It Be", "The Beatles")
	changedFileID := seedFile(t, s, "/music/yesterday.mp3", "Yesterday", "The Beatles")

	if err := s.UpsertMatch(&store.Match{
		Provider: provider, TrackID: "t2", FileID: manualFileID, Score: 0, Method: "manual", Confidence: store.Manual,
	}); err != nil {
		t.Fatal(err)
	}

	m := New(s, Config{Provider: provider, Score: score.Default()}, zerolog.Nop())
	res, err := m.MatchFiles(context.Background(), []int64{changedFileID})
	if err != nil {
		t.Fatal(err)
	}
	if res.Matched != 1 || res.TrackIDs[0] != "t1" {
		t.Fatalf("got %+v, want only t1 matched against the restricted pool", res)
	}

	m2, err := s.GetMatch(provider, "t2")
	if err != nil {
		t.Fatal(err)
	}
	if m2 == nil || m2.Confidence != store.Manual {
		t.Fatalf("MatchFiles must preserve the unrelated MANUAL match, got %+v", m2)
	}
}
