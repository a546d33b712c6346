// Package export implements the "export" subcommand: render M3U
// playlists from the store's current match state.
package export

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/internal/config"
	"github.com/reconcile/reconcile/internal/export"
	"github.com/reconcile/reconcile/internal/store"
)

// Command implements the "export" subcommand.
type Command struct {
	Cfg *config.Config

	playlistIDs string // comma-separated; empty means every playlist
}

func (*Command) Name() string     { return "export" }
func (*Command) Synopsis() string { return "write M3U playlists from the store" }
func (*Command) Usage() string {
	return `export [-playlists=<id,id,...>]:
	Write M3U files for the named playlists (or all of them, plus Liked
	Songs, if -playlists is unset).

`
}

func (cmd *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.playlistIDs, "playlists", "", "comma-separated playlist ids to export")
}

func (cmd *Command) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := store.Open(cmd.Cfg.DBPath, 30*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed opening store:", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	var mode export.Mode
	switch cmd.Cfg.ExportMode {
	case "mirrored":
		mode = export.ModeMirrored
	case "placeholder":
		mode = export.ModePlaceholder
	default:
		mode = export.ModeStrict
	}

	var ids []string
	if cmd.playlistIDs != "" {
		ids = strings.Split(cmd.playlistIDs, ",")
	}

	ecfg := export.Config{
		Provider: store.Provider(cmd.Cfg.Provider), OutDir: cmd.Cfg.ExportDir,
		Mode: mode, PlaceholderExt: cmd.Cfg.PlaceholderExt,
	}
	if err := export.ExportPlaylists(s, ecfg, ids); err != nil {
		fmt.Fprintln(os.Stderr, "Export failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
