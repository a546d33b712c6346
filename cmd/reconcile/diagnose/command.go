// Package diagnose implements the "diagnose" subcommand: print the
// Scoring Engine's breakdown for a track's best and runner-up candidate,
// a supplemented feature for debugging why a match did or didn't happen.
package diagnose

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/internal/config"
	"github.com/reconcile/reconcile/internal/errs"
	"github.com/reconcile/reconcile/internal/match/candidates"
	"github.com/reconcile/reconcile/internal/match/score"
	"github.com/reconcile/reconcile/internal/normalize"
	"github.com/reconcile/reconcile/internal/store"
)

// Command implements the "diagnose" subcommand.
type Command struct {
	Cfg *config.Config
}

func (*Command) Name() string     { return "diagnose" }
func (*Command) Synopsis() string { return "print scoring details for a track's top candidates" }
func (*Command) Usage() string {
	return `diagnose <track_id>:
	Evaluate every candidate local file for track_id and print the best
	and runner-up breakdowns, including the notes explaining each score.

`
}

func (cmd *Command) SetFlags(f *flag.FlagSet) {}

func (cmd *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: diagnose <track_id>")
		return subcommands.ExitUsageError
	}
	trackID := f.Arg(0)

	s, err := store.Open(cmd.Cfg.DBPath, 30*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed opening store:", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	provider := store.Provider(cmd.Cfg.Provider)
	t, err := s.GetTrack(provider, trackID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed looking up track:", err)
		return subcommands.ExitFailure
	}
	if t == nil {
		fmt.Fprintln(os.Stderr, errs.ErrTrackNotFound)
		return subcommands.ExitFailure
	}

	files, err := s.AllFiles()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed listing library files:", err)
		return subcommands.ExitFailure
	}

	cfg := score.Default()
	remote := score.RemoteFromTrack(t)
	indexed := candidates.Index(files)
	pool := candidates.Select(indexed, t.DurationMS, normalize.TokenSet(t.Normalized),
		cmd.Cfg.DurationToleranceSec, cmd.Cfg.CandidateK)

	type scored struct {
		file *store.LibraryFile
		b    score.Breakdown
	}
	var results []scored
	for _, file := range pool {
		results = append(results, scored{file, score.Evaluate(remote, score.LocalFromFile(file), cfg)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].b.Score > results[j].b.Score })

	fmt.Printf("track: %s - %s (%d candidates evaluated)\n", t.ArtistDisplay, t.Name, len(results))
	for i, r := range results {
		if i >= 2 {
			break
		}
		label := "best"
		if i == 1 {
			label = "runner-up"
		}
		fmt.Printf("%s: %s (score=%.1f tier=%s)\n", label, r.file.Path, r.b.Score, r.b.Tier)
		for _, note := range r.b.Notes {
			fmt.Println("  -", note)
		}
	}
	return subcommands.ExitSuccess
}
