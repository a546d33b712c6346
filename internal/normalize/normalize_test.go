package normalize

import "testing"

func TestIdempotent(t *testing.T) {
	for _, s := range []string{
		"The Beatles", "Wish You Were Here - 2011 Remaster",
		"Björk", "Song (feat. Someone)", "", "   spaced   out  ",
	} {
		once := Tokens(s)
		twice := Tokens(once)
		if once != twice {
			t.Errorf("Tokens(%q) = %q, Tokens(that) = %q", s, once, twice)
		}
	}
}

func TestOrderInsensitive(t *testing.T) {
	a := Tokens("Beatles, The")
	b := Tokens("The Beatles")
	if a != b {
		t.Errorf("Tokens(%q) = %q, Tokens(%q) = %q", "Beatles, The", a, "The Beatles", b)
	}
}

func TestStripsFeat(t *testing.T) {
	got := Tokens("Song Title (feat. Other Artist)")
	want := Tokens("Song Title")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripsVersionDescriptors(t *testing.T) {
	got := Tokens("Wish You Were Here - 2011 Remaster")
	want := Tokens("Wish You Were Here 2011")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStopwords(t *testing.T) {
	got := Tokens("The Song of the Year")
	want := Tokens("Song Year")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJaccardEmpty(t *testing.T) {
	if j := Jaccard(TokenSet(""), TokenSet("")); j != 0 {
		t.Errorf("Jaccard(empty, empty) = %v, want 0", j)
	}
}

func TestHasVariantKeyword(t *testing.T) {
	if !HasVariantKeyword("Song Title (Live)") {
		t.Error("expected variant keyword to be detected")
	}
	if HasVariantKeyword("Song Title") {
		t.Error("expected no variant keyword")
	}
}

func TestRatioIdentical(t *testing.T) {
	n := Tokens("Song Title")
	if r := Ratio(n, n); r != 100 {
		t.Errorf("Ratio(x, x) = %v, want 100", r)
	}
}
