// Package scan implements the "scan" subcommand: walk the configured
// music roots and (re)populate the library_files table.
//
// Grounded on the teacher's cmd/nup/scan/command.go — a Command struct
// holding shared config plus its own flags, opening its own store handle
// in Execute.
package scan

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/internal/config"
	"github.com/reconcile/reconcile/internal/logging"
	"github.com/reconcile/reconcile/internal/scan"
	"github.com/reconcile/reconcile/internal/store"
)

// Command implements the "scan" subcommand.
type Command struct {
	Cfg *config.Config

	since     string // RFC3339 timestamp; empty means full scan
	unbounded bool
}

func (*Command) Name() string     { return "scan" }
func (*Command) Synopsis() string { return "scan the music library and update the store" }
func (*Command) Usage() string {
	return `scan [-since=<RFC3339>] [-unbounded]:
	Walk the configured music roots, inserting/updating library_files rows
	for changed files and deleting orphans when -unbounded is set.

`
}

func (cmd *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.since, "since", "", "only rescan files modified after this RFC3339 timestamp")
	f.BoolVar(&cmd.unbounded, "unbounded", true, "delete rows for files no longer present")
}

func (cmd *Command) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logging.Default()
	s, err := store.Open(cmd.Cfg.DBPath, 30*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed opening store:", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	opts := scan.Options{
		Mode:       scan.ModeFull,
		Roots:      cmd.Cfg.MusicRoots,
		Extensions: cmd.Cfg.ExtensionSet(),
		Ignore:     cmd.Cfg.IgnorePatterns,
		UseYear:    cmd.Cfg.UseYear,
		Unbounded:  cmd.unbounded,
	}
	if cmd.since != "" {
		t, err := time.Parse(time.RFC3339, cmd.since)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Bad -since timestamp:", err)
			return subcommands.ExitUsageError
		}
		opts.Mode = scan.ModeSince
		opts.Since = t
	}

	res, err := scan.New(s, log).Scan(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Scan failed:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("seen=%d inserted=%d updated=%d skipped=%d deleted=%d io_errors=%d tag_errors=%d (%s)\n",
		res.FilesSeen, res.Inserted, res.Updated, res.Skipped, res.Deleted, res.IOErrors, res.TagErrors, res.Duration)
	return subcommands.ExitSuccess
}
