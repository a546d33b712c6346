package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/reconcile/reconcile/cmd/reconcile/build"
	"github.com/reconcile/reconcile/cmd/reconcile/diagnose"
	"github.com/reconcile/reconcile/cmd/reconcile/export"
	"github.com/reconcile/reconcile/cmd/reconcile/match"
	"github.com/reconcile/reconcile/cmd/reconcile/pull"
	"github.com/reconcile/reconcile/cmd/reconcile/removematch"
	"github.com/reconcile/reconcile/cmd/reconcile/report"
	"github.com/reconcile/reconcile/cmd/reconcile/scan"
	"github.com/reconcile/reconcile/cmd/reconcile/setmatch"
	"github.com/reconcile/reconcile/cmd/reconcile/watch"
	"github.com/reconcile/reconcile/internal/config"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage %v: [flag]...\n"+
			"Reconciles a remote streaming library against a local audio collection.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	configFile := flag.String("config", filepath.Join(os.Getenv("HOME"), ".reconcile/config.yaml"),
		"Path to config file")

	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.HelpCommand(), "")

	var cfg config.Config
	subcommands.Register(&scan.Command{Cfg: &cfg}, "")
	subcommands.Register(&match.Command{Cfg: &cfg}, "")
	subcommands.Register(&build.Command{Cfg: &cfg}, "")
	subcommands.Register(&pull.Command{Cfg: &cfg}, "")
	subcommands.Register(&export.Command{Cfg: &cfg}, "")
	subcommands.Register(&report.Command{Cfg: &cfg}, "")
	subcommands.Register(&diagnose.Command{Cfg: &cfg}, "")
	subcommands.Register(&setmatch.Command{Cfg: &cfg}, "")
	subcommands.Register(&removematch.Command{Cfg: &cfg}, "")
	subcommands.Register(&watch.Command{Cfg: &cfg}, "")

	flag.Parse()

	if cmd := flag.Arg(0); cmd != "commands" && cmd != "flags" && cmd != "help" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to read config file:", err)
			os.Exit(int(subcommands.ExitUsageError))
		}
		cfg = *loaded
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
