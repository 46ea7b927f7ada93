package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/imranansari/dev-scripts/catalog"
	"github.com/imranansari/dev-scripts/compass"
	"github.com/imranansari/dev-scripts/config"
	"github.com/imranansari/dev-scripts/forge"
	"github.com/imranansari/dev-scripts/gitinfo"
	"github.com/imranansari/dev-scripts/github"
	"github.com/imranansari/dev-scripts/logging"
	"github.com/imranansari/dev-scripts/notifier"
	"github.com/imranansari/dev-scripts/process"
)

const apiTokenHelp = "https://support.atlassian.com/atlassian-account/docs/manage-api-tokens-for-your-atlassian-account/"

func main() {
	os.Exit(run())
}

func run() int {
	dryRun := pflag.Bool("dry-run", false, "Show what would be done without calling Compass or running forge deploy")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <environment> [--dry-run]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Runs forge deploy and records the deployment in Atlassian Compass.")
		fmt.Fprintln(os.Stderr, "environment: development, staging, production, ...")
		fmt.Fprintln(os.Stderr)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		return 1
	}
	environment := pflag.Arg(0)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger("deploy-notifier", "info", "console")
		event := log.Error().Err(err)
		if config.IsMissingCredentials(err) {
			event = event.Str("help", apiTokenHelp)
		}
		event.Msg("Failed to load configuration")
		return 1
	}

	// Initialize logger
	logging.InitLogger("deploy-notifier", cfg.App.LogLevel, cfg.App.LogFormat)

	component, err := catalog.Load(cfg.App.CatalogPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load component catalog")
		return 1
	}

	ctx := context.Background()
	runner := process.ExecRunner{}
	git := gitinfo.Read(ctx, runner)

	log.Info().
		Str("component_slug", component.Name).
		Str("project_slug", component.ProjectSlug).
		Str("environment", environment).
		Str("branch", git.Branch).
		Str("commit", git.ShortHash).
		Bool("dry_run", *dryRun).
		Msg("Starting local Forge deployment")

	commits, err := commitResolver(ctx, cfg, component)
	if err != nil {
		log.Error().Err(err).Msg("Invalid GitHub configuration")
		return 1
	}

	forgeCLI := forge.NewCLI(cfg.Forge.Binary, runner, os.Stdout, logging.ForgeLogger())
	compassClient := compass.NewClient(cfg.Atlassian, cfg.Compass, logging.CompassLogger())

	n := notifier.New(notifier.Dependencies{
		Forge:     forgeCLI,
		Compass:   compassClient,
		Commits:   commits,
		Migration: notifier.NewMigrationHook(forgeCLI, cfg.Forge.MigrationTrigger, cfg.Forge.MigrationTimeout, logging.ForgeLogger()),
	}, component, git, notifier.Options{
		Environment:   environment,
		EventSourceID: cfg.Compass.EventSourceID,
		DryRun:        *dryRun,
	})

	result, err := n.Run(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", result.RunID).
			Str("state", string(result.State)).
			Msg("Deployment failed")
		return 1
	}
	return 0
}

// commitResolver returns nil when commit verification is off or the catalog
// names no repository.
func commitResolver(ctx context.Context, cfg *config.Config, component catalog.Component) (notifier.CommitResolver, error) {
	if !cfg.GitHub.VerifyCommit || component.ProjectSlug == "" {
		return nil, nil
	}

	if cfg.GitHub.AppEnabled() {
		if err := github.ValidatePrivateKey(cfg.GitHub.AppID, cfg.Secrets.GitHubPrivateKey); err != nil {
			return nil, err
		}
	}

	logger := logging.GitHubLogger()
	client, err := github.NewClientFactory(cfg.GitHub, cfg.Secrets.GitHubPrivateKey, logger).CreateClient(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("GitHub client unavailable, commit links will not be verified")
		return nil, nil
	}
	return github.NewCommitURLResolver(client, logger), nil
}
