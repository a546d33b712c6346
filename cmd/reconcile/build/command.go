// Package build implements the "build" subcommand: the one-shot
// scan -> match -> export -> report sequence, for callers who don't want
// to run the watcher.
package build

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/internal/config"
	"github.com/reconcile/reconcile/internal/export"
	"github.com/reconcile/reconcile/internal/logging"
	"github.com/reconcile/reconcile/internal/match"
	"github.com/reconcile/reconcile/internal/match/score"
	"github.com/reconcile/reconcile/internal/report"
	"github.com/reconcile/reconcile/internal/scan"
	"github.com/reconcile/reconcile/internal/store"
)

// Command implements the "build" subcommand.
type Command struct {
	Cfg *config.Config

	noExport bool
	noReport bool
}

func (*Command) Name() string     { return "build" }
func (*Command) Synopsis() string { return "scan, match, export and report in one pass" }
func (*Command) Usage() string {
	return `build [-no-export] [-no-report]:
	Run a full scan, match every track, then export playlists and write
	reports, the non-incremental equivalent of the watch pipeline.

`
}

func (cmd *Command) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.noExport, "no-export", false, "skip M3U export")
	f.BoolVar(&cmd.noReport, "no-report", false, "skip report generation")
}

func (cmd *Command) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logging.Default()
	s, err := store.Open(cmd.Cfg.DBPath, 30*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed opening store:", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	sc := scan.New(s, log)
	scanRes, err := sc.Scan(ctx, scan.Options{
		Mode: scan.ModeFull, Roots: cmd.Cfg.MusicRoots, Extensions: cmd.Cfg.ExtensionSet(),
		Ignore: cmd.Cfg.IgnorePatterns, UseYear: cmd.Cfg.UseYear, Unbounded: true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Scan failed:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("scan: seen=%d inserted=%d updated=%d deleted=%d\n",
		scanRes.FilesSeen, scanRes.Inserted, scanRes.Updated, scanRes.Deleted)

	provider := store.Provider(cmd.Cfg.Provider)
	m := match.New(s, match.Config{
		Provider: provider, Score: score.Default(),
		DurationToleranceSec: cmd.Cfg.DurationToleranceSec, CandidateK: cmd.Cfg.CandidateK,
	}, log)
	matchRes, err := m.MatchAll(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Match failed:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("match: matched=%d\n", matchRes.Matched)

	if !cmd.noExport {
		var mode export.Mode
		switch cmd.Cfg.ExportMode {
		case "mirrored":
			mode = export.ModeMirrored
		case "placeholder":
			mode = export.ModePlaceholder
		}
		ecfg := export.Config{Provider: provider, OutDir: cmd.Cfg.ExportDir, Mode: mode, PlaceholderExt: cmd.Cfg.PlaceholderExt}
		if err := export.ExportPlaylists(s, ecfg, nil); err != nil {
			fmt.Fprintln(os.Stderr, "Export failed:", err)
			return subcommands.ExitFailure
		}
	}
	if !cmd.noReport {
		rcfg := report.Config{Provider: provider, OutDir: cmd.Cfg.ReportDir}
		if err := report.GenerateReports(s, rcfg, nil); err != nil {
			fmt.Fprintln(os.Stderr, "Report generation failed:", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
