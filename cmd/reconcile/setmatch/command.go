// Package setmatch implements the "set-match" subcommand: pin a track to
// a file with MANUAL confidence, a supplemented manual-override feature
// for correcting matches the scorer got wrong.
package setmatch

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/internal/config"
	"github.com/reconcile/reconcile/internal/errs"
	"github.com/reconcile/reconcile/internal/store"
)

// Command implements the "set-match" subcommand.
type Command struct {
	Cfg *config.Config
}

func (*Command) Name() string     { return "set-match" }
func (*Command) Synopsis() string { return "manually pin a track to a local file" }
func (*Command) Usage() string {
	return `set-match <track_id> <file_id>:
	Record a MANUAL match between track_id and file_id. MANUAL matches
	are never overwritten by a later Matcher run.

`
}

func (cmd *Command) SetFlags(f *flag.FlagSet) {}

func (cmd *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: set-match <track_id> <file_id>")
		return subcommands.ExitUsageError
	}
	trackID := f.Arg(0)
	fileID, err := strconv.ParseInt(f.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Bad file id:", err)
		return subcommands.ExitUsageError
	}

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
	file, err := s.GetFile(fileID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed looking up file:", err)
		return subcommands.ExitFailure
	}
	if file == nil {
		fmt.Fprintln(os.Stderr, errs.ErrFileNotFound)
		return subcommands.ExitFailure
	}

	if err := s.UpsertMatch(&store.Match{
		Provider: provider, TrackID: trackID, FileID: fileID,
		Score: 100, Method: "manual", Confidence: store.Manual,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "Failed recording manual match:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
