package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/imranansari/dev-scripts/config"
	"github.com/imranansari/dev-scripts/logging"
	"github.com/imranansari/dev-scripts/siblings"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		direction    = pflag.String("direction", "", `Copy direction: "to" siblings or "from" a sibling (prompted when omitted)`)
		targets      = pflag.StringSlice("to", nil, "Sibling directories to copy to")
		all          = pflag.Bool("all", false, "Copy to every sibling directory")
		source       = pflag.String("from", "", "Sibling directory to copy from")
		manifestPath = pflag.String("manifest", "", "YAML manifest listing the files to copy (default: built-in list)")
		strict       = pflag.Bool("strict", false, "Fail when a manifest entry is missing from the source")
		dryRun       = pflag.Bool("dry-run", false, "Print the copy plan without touching the filesystem")
	)
	pflag.Parse()

	cfg, err := config.LoadSync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	logging.InitLogger("sync-siblings", cfg.LogLevel, cfg.LogFormat)
	logger := logging.SyncLogger()

	dir, err := siblings.ParseDirection(*direction)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid arguments")
		return 1
	}
	opts := siblings.Options{
		Direction: dir,
		Targets:   *targets,
		All:       *all,
		Source:    *source,
		Strict:    *strict,
		DryRun:    *dryRun,
	}
	if err := opts.Validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid arguments")
		return 1
	}

	manifest := siblings.DefaultManifest()
	if *manifestPath == "" {
		*manifestPath = cfg.Manifest
	}
	if *manifestPath != "" {
		if manifest, err = siblings.LoadManifest(*manifestPath); err != nil {
			logger.Error().Err(err).Msg("Failed to load manifest")
			return 1
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to determine current directory")
		return 1
	}

	var prompter siblings.Prompter
	if p, err := siblings.NewSurveyPrompter(); err == nil {
		prompter = p
	}

	syncer := siblings.NewSyncer(cwd, manifest, prompter, os.Stdout, logger)
	_, err = syncer.Run(opts)
	switch {
	case siblings.IsCancelled(err):
		fmt.Fprintln(os.Stderr, "\nSelection cancelled by user.")
		return 0
	case err != nil:
		logger.Error().Err(err).Msg("Sync failed")
		return 1
	}
	return 0
}
