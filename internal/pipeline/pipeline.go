// Package pipeline is the incremental-rebuild driver spec §4.9
// describes: it reacts to watcher-detected library changes and to
// store mutations produced by ingestion, re-running the scan -> match
// -> (export, report) sequence scoped to whatever was affected.
//
// Grounded on the teacher's cmd/nup/update/command.go, which sequences
// scan -> read -> compare -> upload as one synchronous pipeline driven
// from a single Execute call; generalized here into two independently
// triggerable entry points (a library-change callback and a
// store-mtime poll loop) that share the same scan/match/export/report
// ordering.
package pipeline

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reconcile/reconcile/internal/export"
	"github.com/reconcile/reconcile/internal/match"
	"github.com/reconcile/reconcile/internal/pathnorm"
	"github.com/reconcile/reconcile/internal/report"
	"github.com/reconcile/reconcile/internal/scan"
	"github.com/reconcile/reconcile/internal/store"
)

// DefaultPollInterval is the store-mtime poll cadence spec §4.9 names.
const DefaultPollInterval = 2 * time.Second

// farFutureGuard is how far ahead of "now" the local last-seen-mtime
// guard is set while a store-change reaction is in flight, preventing
// the pipeline's own writes from re-triggering itself (spec §4.9).
const farFutureGuard = 10 * time.Minute

// Config configures a Pipeline.
type Config struct {
	Provider     store.Provider
	DBPath       string // path to the SQLite file, for the mtime poll
	PollInterval time.Duration
	Export       export.Config
	Report       report.Config
	NoExport     bool
	NoReport     bool
}

// Pipeline is the incremental-rebuild driver.
type Pipeline struct {
	store   *store.Store
	scanner *scan.Scanner
	matcher *match.Matcher
	cfg     Config
	log     zerolog.Logger
}

// New returns a Pipeline wiring s, scanner and matcher together.
func New(s *store.Store, scanner *scan.Scanner, matcher *match.Matcher, cfg Config, log zerolog.Logger) *Pipeline {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Pipeline{store: s, scanner: scanner, matcher: matcher, cfg: cfg, log: log.With().Str("component", "pipeline").Logger()}
}

// OnLibraryChange implements spec §4.9 path A: the watcher handed us a
// batch of changed paths.
func (p *Pipeline) OnLibraryChange(ctx context.Context, paths []string) error {
	if _, err := p.scanner.Scan(ctx, scan.Options{Mode: scan.ModePaths, Paths: paths}); err != nil {
		return err
	}

	var fileIDs []int64
	for _, path := range paths {
		canon, err := pathnorm.Canonical(path)
		if err != nil {
			continue
		}
		f, err := p.store.GetFileByPath(canon)
		if err != nil {
			return err
		}
		if f != nil {
			fileIDs = append(fileIDs, f.ID)
		}
	}

	matchRes, err := p.matcher.MatchFiles(ctx, fileIDs)
	if err != nil {
		return err
	}

	if err := p.exportAndReport(matchRes.TrackIDs); err != nil {
		return err
	}

	return p.finish(store.WriteSourceWatchLibrary)
}

// PollStoreChanges runs spec §4.9 path B: it watches the store file's
// mtime and reacts to increases produced by an ingestion process
// writing into the same database, until ctx is canceled.
func (p *Pipeline) PollStoreChanges(ctx context.Context) {
	last, _ := fileMTime(p.cfg.DBPath)
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur, err := fileMTime(p.cfg.DBPath)
			if err != nil || !cur.After(last) {
				continue
			}

			// Guard far into the future so our own writes below don't
			// make the next tick see an "increase" and re-trigger.
			last = time.Now().Add(farFutureGuard)

			if err := p.onStoreChange(ctx); err != nil {
				p.log.Warn().Err(err).Msg("store-change reaction failed")
			}

			if actual, err := fileMTime(p.cfg.DBPath); err == nil {
				last = actual
			}
		}
	}
}

func (p *Pipeline) onStoreChange(ctx context.Context) error {
	var matchRes *match.Result
	var err error

	val, ok, err := p.store.GetMeta(store.MetaLastPullChangedTracks)
	if err != nil {
		return err
	}
	if ok && val != "" {
		ids := strings.Split(val, ",")
		matchRes, err = p.matcher.MatchTracks(ctx, ids)
		if err != nil {
			return err
		}
		if err := p.store.SetMeta(store.MetaLastPullChangedTracks, ""); err != nil {
			return err
		}
	} else {
		matchRes, err = p.matcher.MatchAll(ctx)
		if err != nil {
			return err
		}
	}

	if err := p.exportAndReport(matchRes.TrackIDs); err != nil {
		return err
	}
	return p.finish(store.WriteSourceWatchDatabase)
}

// exportAndReport scopes the Exporter/Reporter to the playlists
// containing trackIDs, plus "Liked" if any of them is liked, per spec
// §4.9 steps A.3/A.4 and B.2.
func (p *Pipeline) exportAndReport(trackIDs []string) error {
	if len(trackIDs) == 0 {
		p.log.Info().Msg("no newly matched tracks, skipping export and report")
		return nil
	}

	affected, err := p.store.PlaylistsContainingTracks(p.cfg.Provider, trackIDs)
	if err != nil {
		return err
	}
	liked, err := p.store.AnyLiked(p.cfg.Provider, trackIDs)
	if err != nil {
		return err
	}

	if len(affected) == 0 && !liked {
		p.log.Info().Msg("no affected playlists, skipping export and report")
		return nil
	}

	exportIDs := append([]string{}, affected...)
	if liked {
		exportIDs = append(exportIDs, export.LikedPlaylistID)
	}

	if !p.cfg.NoExport {
		if err := export.ExportPlaylists(p.store, p.cfg.Export, exportIDs); err != nil {
			return err
		}
	}

	if !p.cfg.NoReport {
		if err := report.GenerateReports(p.store, p.cfg.Report, affected); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) finish(source string) error {
	if err := p.store.SetMeta(store.MetaLastWriteSource, source); err != nil {
		return err
	}
	return p.store.SetMeta(store.MetaLastWriteEpoch, strconv.FormatInt(time.Now().Unix(), 10))
}

func fileMTime(path string) (time.Time, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}
