// Package notifier records a local Forge deployment in Compass: it finds the
// installations tracking the component, marks the deployment IN_PROGRESS, runs
// the deploy and reports the outcome.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/imranansari/dev-scripts/catalog"
	"github.com/imranansari/dev-scripts/deployment"
	"github.com/imranansari/dev-scripts/gitinfo"
	"github.com/imranansari/dev-scripts/logging"
)

// State is a step of a deployment run
type State string

const (
	StateInit                  State = "INIT"
	StateInstallationsVerified State = "INSTALLATIONS_VERIFIED"
	StateInProgressSent        State = "IN_PROGRESS_SENT"
	StateDeployed              State = "DEPLOYED"
	StateTerminalSent          State = "TERMINAL_SENT"
	StateAborted               State = "ABORTED"
)

// Dependencies are the external systems a run talks to. Commits and Migration
// are optional.
type Dependencies struct {
	Forge     ForgeCLI
	Compass   CompassAPI
	Commits   CommitResolver
	Migration *MigrationHook
}

// Options control a single run
type Options struct {
	Environment   string
	EventSourceID string
	DryRun        bool
}

// Result summarizes a finished or aborted run
type Result struct {
	State            State
	RunID            string
	URL              string
	Version          string
	Installations    int
	TerminalFailures int
}

// Notifier drives one deployment run
type Notifier struct {
	deps      Dependencies
	component catalog.Component
	git       gitinfo.Info
	opts      Options
	now       func() time.Time
}

// New creates a notifier for component at the checked-out commit described by git
func New(deps Dependencies, component catalog.Component, git gitinfo.Info, opts Options) *Notifier {
	return &Notifier{
		deps:      deps,
		component: component,
		git:       git,
		opts:      opts,
		now:       time.Now,
	}
}

// Run performs the deployment. IN_PROGRESS must reach every verified
// installation before forge deploy starts; once the deploy succeeded FAILED is
// only sent if the migration hook fails.
func (n *Notifier) Run(ctx context.Context) (Result, error) {
	run := deployment.NewRun(n.opts.Environment, n.now(), func(runID string) string {
		return n.runURL(ctx, runID)
	})
	logger := logging.NotifierLogger(run.ID)
	result := Result{State: StateInit, RunID: run.ID, URL: run.URL}

	logger.Info().
		Str("component_slug", n.component.Name).
		Str("environment", run.Environment).
		Str("category", string(run.Category)).
		Str("url", run.URL).
		Bool("dry_run", n.opts.DryRun).
		Msg("Starting deployment run")

	installations := Discover(ctx, n.deps.Forge, n.deps.Compass, logger)

	var verified []deployment.Installation
	if len(installations) == 0 {
		logger.Warn().Msg("No forge installations found. Deployment will proceed without sending notifications")
	} else {
		var err error
		verified, err = Verify(ctx, n.deps.Compass, installations, n.component.Name, logger)
		if err != nil {
			return abort(result, logger, err)
		}
	}
	result.State = StateInstallationsVerified
	result.Installations = len(verified)

	var forgeUser string
	if len(verified) > 0 {
		user, err := n.deps.Forge.WhoAmI(ctx)
		if err != nil {
			return abort(result, logger, err)
		}
		forgeUser = user.Name
	}
	details := func(state deployment.State, version string) deployment.EventDetails {
		return eventDetails(n.component, n.git, forgeUser, state, version)
	}

	emitter := NewEmitter(n.deps.Compass, run, n.opts.EventSourceID, n.opts.DryRun, logger)
	emitter.now = n.now

	if err := emitter.SendInProgress(ctx, verified, details(deployment.StateInProgress, "")); err != nil {
		return abort(result, logger, err)
	}
	result.State = StateInProgressSent

	if n.opts.DryRun {
		logger.Info().Str("environment", run.Environment).Msg("DRY RUN: would run forge deploy")
	} else {
		deployed, err := n.deps.Forge.Deploy(ctx, run.Environment)
		if err != nil {
			result.TerminalFailures = emitter.SendTerminal(ctx, verified, deployment.StateFailed, details(deployment.StateFailed, ""))
			return abort(result, logger, fmt.Errorf("%w: %w", ErrDeployFailed, err))
		}
		result.Version = deployed.Version
	}
	result.State = StateDeployed

	if !n.opts.DryRun {
		if err := n.deps.Migration.Run(ctx, verified, run.Environment); err != nil {
			logger.Error().Err(err).Msg("Post-deployment step failed, sending FAILED since SUCCESSFUL was not sent")
			result.TerminalFailures = emitter.SendTerminal(ctx, verified, deployment.StateFailed, details(deployment.StateFailed, ""))
			return abort(result, logger, fmt.Errorf("post-deployment migration failed: %w", err))
		}
	}

	result.TerminalFailures = emitter.SendTerminal(ctx, verified, deployment.StateSuccessful, details(deployment.StateSuccessful, result.Version))
	result.State = StateTerminalSent

	for _, inst := range verified {
		logger.Info().
			Str("component_url", deployment.ComponentURL(inst.SiteURL, n.component.Name)).
			Msg("View component")
	}
	logger.Info().
		Str("version", result.Version).
		Int("installations", result.Installations).
		Int("notification_failures", result.TerminalFailures).
		Msg("Deployment completed successfully")

	return result, nil
}

func (n *Notifier) runURL(ctx context.Context, runID string) string {
	url := RunURL(n.component, n.git, runID)
	if n.deps.Commits != nil && n.component.ProjectSlug != "" && n.git.HasCommit() {
		url = n.deps.Commits.Resolve(ctx, n.component.ProjectSlug, n.git.FullHash, url)
	}
	return url
}

func abort(result Result, logger zerolog.Logger, err error) (Result, error) {
	logger.Error().Err(err).Str("state", string(result.State)).Msg("Deployment run aborted")
	result.State = StateAborted
	return result, err
}
