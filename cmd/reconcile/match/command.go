// Package match implements the "match" subcommand: run the Matcher over
// every track, a track subset, or a file subset.
package match

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/internal/config"
	"github.com/reconcile/reconcile/internal/logging"
	"github.com/reconcile/reconcile/internal/match"
	"github.com/reconcile/reconcile/internal/match/score"
	"github.com/reconcile/reconcile/internal/store"
)

// Command implements the "match" subcommand.
type Command struct {
	Cfg *config.Config

	trackIDs string // comma-separated; empty means match_all
}

func (*Command) Name() string     { return "match" }
func (*Command) Synopsis() string { return "match remote tracks against local library files" }
func (*Command) Usage() string {
	return `match [-tracks=<id,id,...>]:
	Re-run the Matcher. With -tracks, only the named tracks are
	re-evaluated; otherwise every track is.

`
}

func (cmd *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.trackIDs, "tracks", "", "comma-separated track ids to re-match")
}

func (cmd *Command) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logging.Default()
	s, err := store.Open(cmd.Cfg.DBPath, 30*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed opening store:", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	m := match.New(s, match.Config{
		Provider:             store.Provider(cmd.Cfg.Provider),
		Score:                score.Default(),
		DurationToleranceSec: cmd.Cfg.DurationToleranceSec,
		CandidateK:           cmd.Cfg.CandidateK,
	}, log)

	var res *match.Result
	if cmd.trackIDs != "" {
		res, err = m.MatchTracks(ctx, strings.Split(cmd.trackIDs, ","))
	} else {
		res, err = m.MatchAll(ctx)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Match failed:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("matched=%d\n", res.Matched)
	return subcommands.ExitSuccess
}
