// Package normalize turns raw title/artist/album strings into the
// canonical token-bag form used throughout matching.
package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// cacheSize is the minimum memoization bound required by the spec.
const cacheSize = 8192

// accentFold applies NFKD decomposition and drops combining marks, the
// same pipeline the teacher uses in server/db/song.go's Normalize.
var accentFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

var (
	featClauseRE = regexp.MustCompile(`(?i)\(?\[?\s*(feat\.?|ft\.?|featuring)\b[^()\[\]]*\)?\]?`)
	bracketRE    = regexp.MustCompile(`[\(\[][^\(\)\[\]]*[\)\]]`)
	nonAlnumRE   = regexp.MustCompile(`[^a-z0-9 ]+`)
	spaceRE      = regexp.MustCompile(`\s+`)

	// versionWordRE matches version/remaster descriptors as whole words.
	versionWordRE = regexp.MustCompile(`(?i)\b(remaster(?:ed)?|radio|album|single|extended|live|acoustic|remix|mix|edit|version|demo|deluxe|bonus|explicit|clean|instrumental)\b`)

	// variantWordRE is used on raw (pre-normalization) titles to detect a
	// wider variant-keyword set for the scorer's mismatch penalty.
	variantWordRE = regexp.MustCompile(`(?i)\b(live|remix|acoustic|edit|mix|version|demo|remaster(?:ed)?|instrumental|radio|explicit|clean|deluxe|bonus|extended|unplugged)\b`)
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "from": true,
}

type cacheEntry struct {
	tokens string
}

var tokenCache *lru.Cache[string, cacheEntry]

func init() {
	c, err := lru.New[string, cacheEntry](cacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size
	}
	tokenCache = c
}

// foldAccents lowercases s and strips diacritics via NFKD decomposition.
func foldAccents(s string) string {
	out, _, err := transform.String(accentFold, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// tokenize reduces a folded string to its sorted, stopword-free, de-duped
// token bag, joined with single spaces. Results are memoized since the
// same raw strings recur across a library scan.
func tokenize(folded string) string {
	if e, ok := tokenCache.Get(folded); ok {
		return e.tokens
	}

	s := featClauseRE.ReplaceAllString(folded, " ")
	// Strip version descriptors only inside bracket groups or as whole
	// words, then drop any bracket groups that remain entirely.
	s = versionWordRE.ReplaceAllString(s, " ")
	s = bracketRE.ReplaceAllString(s, " ")
	s = nonAlnumRE.ReplaceAllString(s, " ")
	s = spaceRE.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	var tokens []string
	for _, tok := range strings.Fields(s) {
		if stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	tokens = dedupe(tokens)
	result := strings.Join(tokens, " ")

	tokenCache.Add(folded, cacheEntry{tokens: result})
	return result
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	var prev string
	for i, s := range sorted {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}

// Tokens returns the canonical, order-insensitive token-bag form of s:
// accent-folded, lowercased, stripped of feat./version/bracket noise,
// tokenized, stopword-filtered, sorted and de-duped.
func Tokens(s string) string {
	return tokenize(foldAccents(s))
}

// Normalize produces the canonical normalized title, artist and combined
// form described in spec §4.1.
func Normalize(title, artist string) (normTitle, normArtist, combo string) {
	normTitle = Tokens(title)
	normArtist = Tokens(artist)
	combo = strings.TrimSpace(normArtist + " " + normTitle)
	return normTitle, normArtist, combo
}

// WithYear appends the release year as an extra trailing token, used when
// the scanner's "use year" option is enabled.
func WithYear(normalized string, year int) string {
	if year <= 0 {
		return normalized
	}
	y := yearToken(year)
	if normalized == "" {
		return y
	}
	return normalized + " " + y
}

func yearToken(year int) string {
	return "y" + strconv.Itoa(year)
}

// HasVariantKeyword reports whether the raw (pre-normalization) title
// contains a variant-describing keyword, per the scorer's mismatch rule.
func HasVariantKeyword(rawTitle string) bool {
	return variantWordRE.MatchString(rawTitle)
}

// TokenSet splits a normalized token-bag string into a set for Jaccard
// similarity computation.
func TokenSet(normalized string) map[string]struct{} {
	if normalized == "" {
		return map[string]struct{}{}
	}
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard computes the Jaccard similarity of two token sets.
// jaccard(∅,∅) = 0 per spec.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	var inter int
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Ratio returns a 0-100 token-set similarity score between two already
// normalized strings, used by the scoring engine's fuzzy title/artist
// comparison. It's a Sorensen-Dice coefficient over the token sets, scaled
// to the same 0-100 range the spec's fuzzy thresholds are expressed in.
func Ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	setA, setB := TokenSet(a), TokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 100
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	var inter int
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	return 100 * 2 * float64(inter) / float64(len(setA)+len(setB))
}
