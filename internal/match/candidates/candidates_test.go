package candidates

import (
	"testing"

	"github.com/reconcile/reconcile/internal/normalize"
	"github.com/reconcile/reconcile/internal/store"
)

func dur(f float64) *float64 { return &f }
func ms(n int) *int          { return &n }

func TestSelectFiltersByDuration(t *testing.T) {
	files := []*store.LibraryFile{
		{ID: 1, Normalized: "alpha song", DurationSec: dur(200)},
		{ID: 2, Normalized: "alpha song", DurationSec: dur(400)},
		{ID: 3, Normalized: "alpha song"}, // no duration: never excluded
	}
	idx := Index(files)
	tokens := normalize.TokenSet("alpha song")

	got := Select(idx, ms(200000), tokens, 1, 500)
	var ids []int64
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("got ids %v, want [1 3]", ids)
	}
}

func TestSelectCapsAtK(t *testing.T) {
	var files []*store.LibraryFile
	for i := int64(0); i < 10; i++ {
		files = append(files, &store.LibraryFile{ID: i, Normalized: "song title"})
	}
	idx := Index(files)
	tokens := normalize.TokenSet("song title")

	got := Select(idx, nil, tokens, 0, 3)
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
}

func TestSelectFallsBackToUnfilteredWhenPrefilterEmptiesPool(t *testing.T) {
	files := []*store.LibraryFile{
		{ID: 1, Normalized: "alpha song", DurationSec: dur(900)},
		{ID: 2, Normalized: "alpha song", DurationSec: dur(950)},
	}
	idx := Index(files)
	got := Select(idx, ms(10000), normalize.TokenSet("alpha song"), 1, 500)
	if len(got) != 2 {
		t.Fatalf("an empty prefiltered pool must fall back to the unfiltered set, got %d", len(got))
	}
}

func TestSelectNoDurationIsNoOp(t *testing.T) {
	files := []*store.LibraryFile{
		{ID: 1, Normalized: "x", DurationSec: dur(5)},
		{ID: 2, Normalized: "x", DurationSec: dur(5000)},
	}
	idx := Index(files)
	got := Select(idx, nil, normalize.TokenSet("x"), 1, 500)
	if len(got) != 2 {
		t.Fatalf("track with no duration must skip the prefilter, got %d", len(got))
	}
}
