// Package watch implements the "watch" subcommand: run the Watcher and
// Pipeline together as a long-lived process that incrementally rebuilds
// exports and reports as the library and store change.
package watch

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/internal/config"
	"github.com/reconcile/reconcile/internal/export"
	"github.com/reconcile/reconcile/internal/logging"
	"github.com/reconcile/reconcile/internal/match"
	"github.com/reconcile/reconcile/internal/match/score"
	fswatch "github.com/reconcile/reconcile/internal/watch"
	"github.com/reconcile/reconcile/internal/pipeline"
	"github.com/reconcile/reconcile/internal/report"
	"github.com/reconcile/reconcile/internal/scan"
	"github.com/reconcile/reconcile/internal/store"
)

// Command implements the "watch" subcommand.
type Command struct {
	Cfg *config.Config
}

func (*Command) Name() string     { return "watch" }
func (*Command) Synopsis() string { return "watch the library and store, rebuilding incrementally" }
func (*Command) Usage() string {
	return `watch:
	Run until interrupted, reacting to file-system changes under the
	configured music roots and to store mutations from a concurrent pull.

`
}

func (cmd *Command) SetFlags(f *flag.FlagSet) {}

func (cmd *Command) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logging.Default()

	s, err := store.Open(cmd.Cfg.DBPath, 30*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed opening store:", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	provider := store.Provider(cmd.Cfg.Provider)
	sc := scan.New(s, log)
	m := match.New(s, match.Config{
		Provider: provider, Score: score.Default(),
		DurationToleranceSec: cmd.Cfg.DurationToleranceSec, CandidateK: cmd.Cfg.CandidateK,
	}, log)

	var exportMode export.Mode
	switch cmd.Cfg.ExportMode {
	case "mirrored":
		exportMode = export.ModeMirrored
	case "placeholder":
		exportMode = export.ModePlaceholder
	}

	pl := pipeline.New(s, sc, m, pipeline.Config{
		Provider:     provider,
		DBPath:       cmd.Cfg.DBPath,
		PollInterval: cmd.Cfg.StorePollInterval(),
		Export:       export.Config{Provider: provider, OutDir: cmd.Cfg.ExportDir, Mode: exportMode, PlaceholderExt: cmd.Cfg.PlaceholderExt},
		Report:       report.Config{Provider: provider, OutDir: cmd.Cfg.ReportDir},
	}, log)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go pl.PollStoreChanges(ctx)

	w := fswatch.New(fswatch.Options{
		Roots: cmd.Cfg.MusicRoots, Extensions: cmd.Cfg.ExtensionSet(),
		IgnorePatterns: cmd.Cfg.IgnorePatterns, Debounce: cmd.Cfg.WatchDebounce(),
	}, log)
	if err := w.Start(func(paths []string) {
		if err := pl.OnLibraryChange(ctx, paths); err != nil {
			log.Warn().Err(err).Msg("library-change reaction failed")
		}
	}); err != nil {
		fmt.Fprintln(os.Stderr, "Failed starting watcher:", err)
		return subcommands.ExitFailure
	}
	defer w.Stop()

	<-ctx.Done()
	return subcommands.ExitSuccess
}
