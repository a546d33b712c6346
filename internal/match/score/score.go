// Package score implements the pure scoring engine (spec §4.6): given a
// remote track and a local library file, it produces a ScoreBreakdown
// carrying the arithmetic total, confidence tier, and a human-readable
// trail of every contribution and penalty that fired.
//
// Grounded on the teacher's server/db/song.go Metadata-comparison helpers
// (exact-then-fuzzy field comparison), generalized from a single
// duplicate-detection ratio into the multi-field weighted model the
// spec's Config describes.
package score

import (
	"fmt"
	"strings"

	"github.com/reconcile/reconcile/internal/normalize"
	"github.com/reconcile/reconcile/internal/store"
)

// Config holds the tunable weights, penalties and thresholds. Default()
// returns the spec's design-defined contract values.
type Config struct {
	WeightTitleExact    float64
	WeightTitleFuzzy    float64
	WeightArtistExact   float64
	WeightArtistFuzzy   float64
	WeightAlbumExact    float64
	WeightAlbumFuzzy    float64
	WeightYear          float64
	WeightDurationTight float64
	WeightDurationLoose float64
	WeightISRC          float64

	PenaltyAlbumMissingLocal  float64
	PenaltyAlbumMissingRemote float64
	PenaltyYearMissingPerSide float64
	PenaltyMetadataAbsence    float64
	PenaltyVariantMismatch    float64

	MinTitleRatio     float64
	StrongTitleRatio  float64
	MinArtistRatio    float64
	StrongArtistRatio float64
	MinAlbumRatio     float64

	TierCertain float64
	TierHigh    float64
	TierMedium  float64
	TierLow     float64
}

// Default returns the spec §4.6 default configuration.
func Default() Config {
	return Config{
		WeightTitleExact: 45, WeightTitleFuzzy: 30,
		WeightArtistExact: 30, WeightArtistFuzzy: 20,
		WeightAlbumExact: 18, WeightAlbumFuzzy: 12,
		WeightYear: 6,
		WeightDurationTight: 6, WeightDurationLoose: 3,
		WeightISRC: 15,

		PenaltyAlbumMissingLocal:  8,
		PenaltyAlbumMissingRemote: 5,
		PenaltyYearMissingPerSide: 4,
		PenaltyMetadataAbsence:    15,
		PenaltyVariantMismatch:    6,

		MinTitleRatio: 88, StrongTitleRatio: 96,
		MinArtistRatio: 92, StrongArtistRatio: 96,
		MinAlbumRatio: 95,

		TierCertain: 95, TierHigh: 82, TierMedium: 78, TierLow: 65,
	}
}

// Remote is the subset of store.Track the scorer needs.
type Remote struct {
	Title, Artist, Album string
	Year                 *int
	ISRC                 *string
	DurationMS           *int
}

// Local is the subset of store.LibraryFile the scorer needs.
type Local struct {
	Title, Artist, Album string
	Year                 *int
	DurationSec          *float64
	ISRC                 *string
}

// Breakdown is the ScoreBreakdown spec §4.6 names.
type Breakdown struct {
	Score            float64
	Tier             store.Confidence
	Signals          []string // names of signals that matched ("title_exact", "isrc_exact", ...)
	DurationDiffSec  *float64
	TitleFuzzyRatio  float64
	ArtistFuzzyRatio float64
	Notes            []string
}

// RemoteFromTrack adapts a store.Track into the scorer's Remote view.
func RemoteFromTrack(t *store.Track) Remote {
	return Remote{Title: t.Name, Artist: t.ArtistDisplay, Album: t.Album, Year: t.Year, ISRC: t.ISRC, DurationMS: t.DurationMS}
}

// LocalFromFile adapts a store.LibraryFile into the scorer's Local view.
func LocalFromFile(f *store.LibraryFile) Local {
	return Local{Title: f.Title, Artist: f.Artist, Album: f.Album, Year: f.Year, DurationSec: f.DurationSec, ISRC: f.ISRC}
}

// Evaluate scores one (remote, local) pair per spec §4.6.
func Evaluate(remote Remote, local Local, cfg Config) Breakdown {
	var b Breakdown
	var total float64

	normTitleR := normalize.Tokens(remote.Title)
	normTitleL := normalize.Tokens(local.Title)
	normArtistR := normalize.Tokens(remote.Artist)
	normArtistL := normalize.Tokens(local.Artist)
	normAlbumR := normalize.Tokens(remote.Album)
	normAlbumL := normalize.Tokens(local.Album)

	exactTitle, exactArtist, exactAlbum, exactYear, exactISRC := false, false, false, false, false

	// Title.
	if normTitleR == normTitleL {
		total += cfg.WeightTitleExact
		exactTitle = true
		b.Signals = append(b.Signals, "title_exact")
		b.Notes = append(b.Notes, note("title exact match (+%.1f)", cfg.WeightTitleExact))
		b.TitleFuzzyRatio = 100
	} else {
		ratio := normalize.Ratio(normTitleR, normTitleL)
		b.TitleFuzzyRatio = ratio
		if ratio >= cfg.MinTitleRatio {
			contrib := scaleFuzzy(ratio, cfg.MinTitleRatio, cfg.StrongTitleRatio, cfg.WeightTitleFuzzy)
			total += contrib
			b.Signals = append(b.Signals, "title_fuzzy")
			b.Notes = append(b.Notes, note("title fuzzy match (ratio %.1f, +%.1f)", ratio, contrib))
		}
	}

	// Artist.
	if normArtistR == normArtistL {
		total += cfg.WeightArtistExact
		exactArtist = true
		b.Signals = append(b.Signals, "artist_exact")
		b.Notes = append(b.Notes, note("artist exact match (+%.1f)", cfg.WeightArtistExact))
		b.ArtistFuzzyRatio = 100
	} else {
		ratio := normalize.Ratio(normArtistR, normArtistL)
		b.ArtistFuzzyRatio = ratio
		if ratio >= cfg.MinArtistRatio {
			total += cfg.WeightArtistFuzzy
			b.Signals = append(b.Signals, "artist_fuzzy")
			b.Notes = append(b.Notes, note("artist fuzzy match (ratio %.1f, +%.1f)", ratio, cfg.WeightArtistFuzzy))
		}
	}

	// Album.
	albumMissingR := strings.TrimSpace(remote.Album) == ""
	albumMissingL := strings.TrimSpace(local.Album) == ""
	switch {
	case albumMissingR && albumMissingL:
		// Album absent on both sides: neither a contribution nor a
		// penalty here (the combined album-and-year absence penalty below
		// may still apply).
		b.Notes = append(b.Notes, "album absent on both sides, treated as neutral match")
	case albumMissingL:
		total -= cfg.PenaltyAlbumMissingLocal
		b.Notes = append(b.Notes, note("album missing locally (-%.1f)", cfg.PenaltyAlbumMissingLocal))
	case albumMissingR:
		total -= cfg.PenaltyAlbumMissingRemote
		b.Notes = append(b.Notes, note("album missing remotely (-%.1f)", cfg.PenaltyAlbumMissingRemote))
	case normAlbumR == normAlbumL:
		total += cfg.WeightAlbumExact
		exactAlbum = true
		b.Signals = append(b.Signals, "album_exact")
		b.Notes = append(b.Notes, note("album exact match (+%.1f)", cfg.WeightAlbumExact))
	default:
		ratio := normalize.Ratio(normAlbumR, normAlbumL)
		if ratio >= cfg.MinAlbumRatio {
			total += cfg.WeightAlbumFuzzy
			b.Signals = append(b.Signals, "album_fuzzy")
			b.Notes = append(b.Notes, note("album fuzzy match (ratio %.1f, +%.1f)", ratio, cfg.WeightAlbumFuzzy))
		}
	}

	// Year.
	yearMissingR := remote.Year == nil
	yearMissingL := local.Year == nil
	switch {
	case yearMissingR && yearMissingL:
		// Combined-metadata-absence handled below.
	case yearMissingL:
		total -= cfg.PenaltyYearMissingPerSide
		b.Notes = append(b.Notes, note("year missing locally (-%.1f)", cfg.PenaltyYearMissingPerSide))
	case yearMissingR:
		total -= cfg.PenaltyYearMissingPerSide
		b.Notes = append(b.Notes, note("year missing remotely (-%.1f)", cfg.PenaltyYearMissingPerSide))
	default:
		diff := *remote.Year - *local.Year
		if diff < 0 {
			diff = -diff
		}
		if diff <= 1 {
			total += cfg.WeightYear
			exactYear = diff == 0
			b.Signals = append(b.Signals, "year_match")
			b.Notes = append(b.Notes, note("year match within ±1 (+%.1f)", cfg.WeightYear))
		}
	}

	if albumMissingR && albumMissingL && yearMissingR && yearMissingL {
		total -= cfg.PenaltyMetadataAbsence
		b.Notes = append(b.Notes, note("album and year absent on both sides (-%.1f)", cfg.PenaltyMetadataAbsence))
	}

	// Duration.
	if remote.DurationMS != nil && local.DurationSec != nil {
		remoteSec := float64(*remote.DurationMS) / 1000
		diff := remoteSec - *local.DurationSec
		if diff < 0 {
			diff = -diff
		}
		b.DurationDiffSec = &diff
		switch {
		case diff <= 2:
			total += cfg.WeightDurationTight
			b.Signals = append(b.Signals, "duration_tight")
			b.Notes = append(b.Notes, note("duration within 2s (+%.1f)", cfg.WeightDurationTight))
		case diff <= 4:
			total += cfg.WeightDurationLoose
			b.Signals = append(b.Signals, "duration_loose")
			b.Notes = append(b.Notes, note("duration within 4s (+%.1f)", cfg.WeightDurationLoose))
		}
	}

	// ISRC: case-insensitive equality after trim, a strong CERTAIN signal.
	if remote.ISRC != nil && local.ISRC != nil {
		r := strings.ToUpper(strings.TrimSpace(*remote.ISRC))
		l := strings.ToUpper(strings.TrimSpace(*local.ISRC))
		if r != "" && r == l {
			total += cfg.WeightISRC
			exactISRC = true
			b.Signals = append(b.Signals, "isrc_exact", "isrc_match")
			b.Notes = append(b.Notes, note("ISRC exact match (+%.1f)", cfg.WeightISRC))
		}
	}

	// Variant mismatch: compares raw (pre-normalization) titles.
	variantR := normalize.HasVariantKeyword(remote.Title)
	variantL := normalize.HasVariantKeyword(local.Title)
	if variantR != variantL {
		total -= cfg.PenaltyVariantMismatch
		b.Notes = append(b.Notes, note("penalty_variant_mismatch: variant keyword present on only one side (-%.1f)", cfg.PenaltyVariantMismatch))
	}

	b.Score = total
	allExact := exactTitle && exactArtist && exactAlbum && exactYear && exactISRC
	b.Tier = tierFor(total, allExact, cfg)
	return b
}

// scaleFuzzy linearly scales a ratio in [min, strong] to [0, weight],
// clamping at weight once ratio >= strong.
func scaleFuzzy(ratio, min, strong, weight float64) float64 {
	if ratio >= strong {
		return weight
	}
	if strong <= min {
		return weight
	}
	return weight * (ratio - min) / (strong - min)
}

func tierFor(total float64, allExact bool, cfg Config) store.Confidence {
	if allExact {
		return store.Certain
	}
	switch {
	case total >= cfg.TierCertain:
		return store.Certain
	case total >= cfg.TierHigh:
		return store.High
	case total >= cfg.TierMedium:
		return store.Medium
	case total >= cfg.TierLow:
		return store.Low
	default:
		return store.Rejected
	}
}

func note(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
