// Package report implements the "report" subcommand: write per-playlist
// match-detail CSVs and the tier-count summary.
package report

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/internal/config"
	"github.com/reconcile/reconcile/internal/report"
	"github.com/reconcile/reconcile/internal/store"
)

// Command implements the "report" subcommand.
type Command struct {
	Cfg *config.Config

	playlistIDs string // comma-separated; empty means every playlist
	summaryOnly bool
}

func (*Command) Name() string     { return "report" }
func (*Command) Synopsis() string { return "write match-detail and summary reports" }
func (*Command) Usage() string {
	return `report [-playlists=<id,id,...>] [-summary-only]:
	Write per-playlist detail CSVs and the confidence-tier summary.

`
}

func (cmd *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.playlistIDs, "playlists", "", "comma-separated playlist ids to report on")
	f.BoolVar(&cmd.summaryOnly, "summary-only", false, "print the confidence-tier tally and exit")
}

func (cmd *Command) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := store.Open(cmd.Cfg.DBPath, 30*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed opening store:", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	provider := store.Provider(cmd.Cfg.Provider)

	if cmd.summaryOnly {
		tc, err := s.TierCounts(provider)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed tallying tiers:", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("MANUAL=%d CERTAIN=%d HIGH=%d MEDIUM=%d LOW=%d\n",
			tc.Manual, tc.Certain, tc.High, tc.Medium, tc.Low)
		return subcommands.ExitSuccess
	}

	var ids []string
	if cmd.playlistIDs != "" {
		ids = strings.Split(cmd.playlistIDs, ",")
	}
	rcfg := report.Config{Provider: provider, OutDir: cmd.Cfg.ReportDir}
	if err := report.GenerateReports(s, rcfg, ids); err != nil {
		fmt.Fprintln(os.Stderr, "Report generation failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
