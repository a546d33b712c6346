// Package candidates implements the two-stage pruning pass (spec §4.5)
// that narrows the full library down to a small pool worth scoring for a
// given remote track.
//
// Grounded on the teacher's server/query/query.go, which narrows a
// datastore-wide song scan down to a bounded result set before returning
// it; here the same shape — cheap prefilter, then a bounded top-K
// re-rank — narrows library_files down for the scoring engine instead of
// narrowing songs down for an HTTP response.
package candidates

import (
	"sort"

	"github.com/reconcile/reconcile/internal/normalize"
	"github.com/reconcile/reconcile/internal/store"
)

// defaultK is the cap on the token-pre-score stage.
const defaultK = 500

// Indexed wraps a LibraryFile with its precomputed token set so Jaccard
// similarity never re-tokenizes the same file for every remote track.
type Indexed struct {
	File   *store.LibraryFile
	Tokens map[string]struct{}
}

// Index precomputes token sets for files once per scan/rebuild, per
// spec §4.5's requirement to avoid O(n²) per-track tokenizing.
func Index(files []*store.LibraryFile) []Indexed {
	out := make([]Indexed, len(files))
	for i, f := range files {
		out[i] = Indexed{File: f, Tokens: normalize.TokenSet(f.Normalized)}
	}
	return out
}

// Select narrows all down to the candidate pool for one remote track.
// durationToleranceSec is T from spec §4.5; pass <= 0 to skip the
// duration prefilter entirely. k <= 0 uses the default cap of 500.
func Select(all []Indexed, trackDurationMS *int, trackTokens map[string]struct{}, durationToleranceSec float64, k int) []*store.LibraryFile {
	if k <= 0 {
		k = defaultK
	}

	survivors := all
	if trackDurationMS != nil && durationToleranceSec > 0 {
		survivors = filterByDuration(all, *trackDurationMS, durationToleranceSec)
		if len(survivors) == 0 && len(all) > 0 {
			// Spec's error-handling table requires falling back to the
			// unfiltered set rather than dropping the track entirely when
			// a prefilter empties the candidate pool.
			survivors = all
		}
	}

	if len(survivors) <= k {
		out := make([]*store.LibraryFile, len(survivors))
		for i, s := range survivors {
			out[i] = s.File
		}
		return out
	}

	type scored struct {
		file  *store.LibraryFile
		score float64
	}
	ranked := make([]scored, len(survivors))
	for i, s := range survivors {
		ranked[i] = scored{file: s.File, score: normalize.Jaccard(trackTokens, s.Tokens)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]*store.LibraryFile, k)
	for i := 0; i < k; i++ {
		out[i] = ranked[i].file
	}
	return out
}

// filterByDuration keeps files with no recorded duration (never excluded)
// or whose duration is within max(4, 2T) seconds of the track's.
func filterByDuration(all []Indexed, trackDurationMS int, toleranceSec float64) []Indexed {
	tolerance := toleranceSec * 2
	if tolerance < 4 {
		tolerance = 4
	}
	trackSec := float64(trackDurationMS) / 1000

	var out []Indexed
	for _, s := range all {
		if s.File.DurationSec == nil {
			out = append(out, s)
			continue
		}
		diff := *s.File.DurationSec - trackSec
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance {
			out = append(out, s)
		}
	}
	return out
}
