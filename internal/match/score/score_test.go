package score

import (
	"testing"

	"github.com/reconcile/reconcile/internal/store"
)

func ip(n int) *int          { return &n }
func fp(f float64) *float64  { return &f }
func sp(s string) *string    { return &s }

func TestExactMatchIsCertain(t *testing.T) {
	r := Remote{Title: "Yesterday", Artist: "The Beatles", Album: "Help!", Year: ip(1965), DurationMS: ip(125000), ISRC: sp("GBAYE6500524")}
	l := Local{Title: "Yesterday", Artist: "The Beatles", Album: "Help!", Year: ip(1965), DurationSec: fp(125), ISRC: sp("gbaye6500524")}

	b := Evaluate(r, l, Default())
	if b.Tier != store.Certain {
		t.Fatalf("got tier %v, want CERTAIN", b.Tier)
	}
}

func TestMissingMetadataBothSidesPenalized(t *testing.T) {
	r := Remote{Title: "Song", Artist: "Artist"}
	l := Local{Title: "Song", Artist: "Artist"}
	b := Evaluate(r, l, Default())
	// title exact (45) + artist exact (30) - metadata absence (15) = 60 -> LOW territory but below 65.
	if b.Tier != store.Rejected {
		t.Fatalf("got tier %v score %v, want REJECTED", b.Tier, b.Score)
	}
	found := false
	for _, n := range b.Notes {
		if n == "album and year absent on both sides (-15.0)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a combined metadata-absence note, got %v", b.Notes)
	}
}

func TestVariantMismatchPenalty(t *testing.T) {
	r := Remote{Title: "Song (Live)", Artist: "Artist"}
	l := Local{Title: "Song", Artist: "Artist"}
	b := Evaluate(r, l, Default())
	var penalized bool
	for _, n := range b.Notes {
		if n == "penalty_variant_mismatch: variant keyword present on only one side (-6.0)" {
			penalized = true
		}
	}
	if !penalized {
		t.Fatalf("expected variant mismatch penalty, got %v", b.Notes)
	}
}

func TestDurationTightVsLoose(t *testing.T) {
	r := Remote{Title: "Song", Artist: "Artist", DurationMS: ip(100000)}
	tight := Evaluate(r, Local{Title: "Song", Artist: "Artist", DurationSec: fp(101)}, Default())
	loose := Evaluate(r, Local{Title: "Song", Artist: "Artist", DurationSec: fp(103.5)}, Default())
	if tight.Score <= loose.Score {
		t.Fatalf("tight duration match (%v) should score higher than loose (%v)", tight.Score, loose.Score)
	}
}

func TestYearOffByOneStillMatches(t *testing.T) {
	r := Remote{Title: "Song", Artist: "Artist", Year: ip(2000)}
	l := Local{Title: "Song", Artist: "Artist", Year: ip(2001)}
	b := Evaluate(r, l, Default())
	hasYear := false
	for _, s := range b.Signals {
		if s == "year_match" {
			hasYear = true
		}
	}
	if !hasYear {
		t.Fatalf("expected year match within +/-1, signals=%v", b.Signals)
	}
}

func TestRejectedBelowLowThreshold(t *testing.T) {
	r := Remote{Title: "Completely Different Title", Artist: "Someone Else"}
	l := Local{Title: "Another Song Entirely", Artist: "A Totally Different Band"}
	b := Evaluate(r, l, Default())
	if b.Tier != store.Rejected {
		t.Fatalf("got tier %v, want REJECTED", b.Tier)
	}
}
