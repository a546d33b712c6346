// Package removematch implements the "remove-match" subcommand: clear a
// track's match row (MANUAL or otherwise), the counterpart to set-match.
package removematch

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/internal/config"
	"github.com/reconcile/reconcile/internal/errs"
	"github.com/reconcile/reconcile/internal/store"
)

// Command implements the "remove-match" subcommand.
type Command struct {
	Cfg *config.Config
}

func (*Command) Name() string     { return "remove-match" }
func (*Command) Synopsis() string { return "clear a track's match row" }
func (*Command) Usage() string {
	return `remove-match <track_id>:
	Delete track_id's match row, including a MANUAL one, so the next
	Matcher run is free to re-evaluate it.

`
}

func (cmd *Command) SetFlags(f *flag.FlagSet) {}

func (cmd *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: remove-match <track_id>")
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
	m, err := s.GetMatch(provider, trackID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed looking up match:", err)
		return subcommands.ExitFailure
	}
	if m == nil {
		fmt.Fprintln(os.Stderr, errs.ErrTrackNotFound)
		return subcommands.ExitFailure
	}

	if err := s.DeleteMatchesByTrackIDs(provider, []string{trackID}); err != nil {
		fmt.Fprintln(os.Stderr, "Failed removing match:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
