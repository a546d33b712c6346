// Package match implements the Matcher (spec §4.7): it runs the
// candidate selector and scoring engine over remote tracks and local
// library files and persists the resulting matches, honoring the rule
// that MANUAL matches are sticky.
//
// Grounded on the teacher's cmd/nup/update/scan.go batch-commit-with-
// progress-log shape (process N items, log every P, report counts at
// the end), retargeted from "upload changed songs" to "score and
// persist matches".
package match

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/reconcile/reconcile/internal/match/candidates"
	"github.com/reconcile/reconcile/internal/match/score"
	"github.com/reconcile/reconcile/internal/normalize"
	"github.com/reconcile/reconcile/internal/store"
)

// progressInterval mirrors the teacher's logProgressInterval constant.
const progressInterval = 100

// Config configures a Matcher.
type Config struct {
	Provider             store.Provider
	Score                score.Config
	DurationToleranceSec float64 // T in spec §4.5; <= 0 disables the prefilter
	CandidateK           int     // K in spec §4.5; <= 0 uses the default (500)
}

// Result is the count+ids contract spec §4.7 requires of every operation.
type Result struct {
	Matched  int
	TrackIDs []string
}

// Matcher runs candidate selection and scoring against a Store.
type Matcher struct {
	store *store.Store
	cfg   Config
	log   zerolog.Logger
}

// New returns a Matcher over s.
func New(s *store.Store, cfg Config, log zerolog.Logger) *Matcher {
	return &Matcher{store: s, cfg: cfg, log: log.With().Str("component", "matcher").Logger()}
}

// MatchAll iterates every remote track and matches it against the full
// library.
func (m *Matcher) MatchAll(ctx context.Context) (*Result, error) {
	tracks, err := m.store.AllTracks(m.cfg.Provider)
	if err != nil {
		return nil, err
	}
	files, err := m.store.AllFiles()
	if err != nil {
		return nil, err
	}
	return m.run(ctx, tracks, candidates.Index(files))
}

// MatchTracks restricts matching to trackIDs, deleting any existing
// matches for them first. An empty trackIDs falls back to every
// currently unmatched track.
func (m *Matcher) MatchTracks(ctx context.Context, trackIDs []string) (*Result, error) {
	if len(trackIDs) > 0 {
		if err := m.store.DeleteMatchesByTrackIDs(m.cfg.Provider, trackIDs); err != nil {
			return nil, err
		}
	}

	var tracks []*store.Track
	var err error
	if len(trackIDs) == 0 {
		tracks, err = m.store.UnmatchedTracks(m.cfg.Provider)
	} else {
		tracks, err = m.store.TracksByIDs(m.cfg.Provider, trackIDs)
	}
	if err != nil {
		return nil, err
	}

	files, err := m.store.AllFiles()
	if err != nil {
		return nil, err
	}
	return m.run(ctx, tracks, candidates.Index(files))
}

// MatchFiles is the inverted pass the watcher drives: every remote track
// is considered, but the candidate pool is restricted to fileIDs. Any
// existing match referencing fileIDs is deleted first (MANUAL matches
// preserved), so a MANUAL override survives a rescan of its own file.
func (m *Matcher) MatchFiles(ctx context.Context, fileIDs []int64) (*Result, error) {
	if err := m.store.DeleteMatchesByFileIDs(fileIDs, true); err != nil {
		return nil, err
	}

	tracks, err := m.store.AllTracks(m.cfg.Provider)
	if err != nil {
		return nil, err
	}
	files, err := m.store.FilesByIDs(fileIDs)
	if err != nil {
		return nil, err
	}
	return m.run(ctx, tracks, candidates.Index(files))
}

// run scores every track in tracks against the candidate pool idx and
// persists the best non-REJECTED match for each, skipping tracks whose
// existing match is MANUAL.
func (m *Matcher) run(ctx context.Context, tracks []*store.Track, idx []candidates.Indexed) (*Result, error) {
	res := &Result{}

	for i, t := range tracks {
		select {
		case <-ctx.Done():
			return res, nil
		default:
		}

		if i > 0 && i%progressInterval == 0 {
			m.log.Debug().Int("n", i).Int("total", len(tracks)).Msg("matching progress")
		}

		existing, err := m.store.GetMatch(t.Provider, t.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Confidence == store.Manual {
			continue
		}

		best, breakdown, ok := m.bestCandidate(t, idx)
		if !ok {
			continue
		}

		match := &store.Match{
			Provider: t.Provider, TrackID: t.ID, FileID: best.ID,
			Score: breakdown.Score, Method: "auto", Confidence: breakdown.Tier,
		}
		if err := m.store.UpsertMatch(match); err != nil {
			return nil, err
		}
		res.Matched++
		res.TrackIDs = append(res.TrackIDs, t.ID)
	}

	return res, nil
}

// bestCandidate runs the selector then the scorer for one track,
// returning the highest-scoring non-REJECTED candidate, early-exiting at
// the first CERTAIN result.
func (m *Matcher) bestCandidate(t *store.Track, idx []candidates.Indexed) (*store.LibraryFile, score.Breakdown, bool) {
	trackTokens := normalize.TokenSet(t.Normalized)
	pool := candidates.Select(idx, t.DurationMS, trackTokens, m.cfg.DurationToleranceSec, m.cfg.CandidateK)

	remote := score.RemoteFromTrack(t)

	var bestFile *store.LibraryFile
	var bestBreakdown score.Breakdown
	found := false

	for _, f := range pool {
		b := score.Evaluate(remote, score.LocalFromFile(f), m.cfg.Score)
		if b.Tier == store.Rejected {
			continue
		}
		if !found || b.Score > bestBreakdown.Score {
			bestFile, bestBreakdown, found = f, b, true
		}
		if b.Tier == store.Certain {
			break
		}
	}

	return bestFile, bestBreakdown, found
}

