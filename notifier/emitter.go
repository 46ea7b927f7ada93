package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/imranansari/dev-scripts/compass"
	"github.com/imranansari/dev-scripts/deployment"
)

// Emitter sends the events of one run to its verified installations
type Emitter struct {
	api           EventAPI
	run           deployment.Run
	eventSourceID string
	dryRun        bool
	now           func() time.Time
	logger        zerolog.Logger
}

// NewEmitter creates an emitter for run. In dry-run mode payloads are built,
// validated and logged but never sent.
func NewEmitter(api EventAPI, run deployment.Run, eventSourceID string, dryRun bool, logger zerolog.Logger) *Emitter {
	return &Emitter{
		api:           api,
		run:           run,
		eventSourceID: eventSourceID,
		dryRun:        dryRun,
		now:           time.Now,
		logger:        logger,
	}
}

// SendInProgress delivers IN_PROGRESS to every installation or to none. A
// missing event source is created and attached once, then the send is retried.
// If any installation still fails, FAILED is sent best-effort to those that
// accepted IN_PROGRESS and a *DeliveryError is returned.
func (e *Emitter) SendInProgress(ctx context.Context, installations []deployment.Installation, details deployment.EventDetails) error {
	if len(installations) == 0 {
		e.logger.Info().Msg("No installations available - skipping IN_PROGRESS notifications")
		return nil
	}

	event := e.run.NewEvent(deployment.StateInProgress, details, e.now())

	var (
		delivered []deployment.Installation
		failed    []string
		errs      = &multierror.Error{ErrorFormat: flatFormat}
	)
	for _, inst := range installations {
		if err := e.deliverWithRemediation(ctx, inst, event); err != nil {
			e.logger.Error().
				Err(err).
				Str("site_url", inst.SiteURL).
				Msg("Failed to send IN_PROGRESS event")
			failed = append(failed, inst.SiteURL)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", inst.SiteURL, err))
			continue
		}
		delivered = append(delivered, inst)
	}

	if len(failed) == 0 {
		return nil
	}

	e.logger.Error().
		Int("failed", len(failed)).
		Int("compensating", len(delivered)).
		Msg("IN_PROGRESS notifications failed, sending FAILED to notified installations and aborting")

	e.SendTerminal(ctx, delivered, deployment.StateFailed, details)

	return &DeliveryError{
		State:       deployment.StateInProgress,
		FailedSites: failed,
		Compensated: len(delivered),
		Errs:        errs,
	}
}

func (e *Emitter) deliverWithRemediation(ctx context.Context, inst deployment.Installation, event deployment.Event) error {
	err := e.deliver(ctx, inst, event)
	if err == nil || !compass.IsEventSourceMissing(err) {
		return err
	}

	e.logger.Warn().
		Str("site_url", inst.SiteURL).
		Str("external_event_source_id", e.eventSourceID).
		Msg("Event source not found - attempting automatic creation")

	if err := e.api.EnsureEventSource(ctx, inst, e.eventSourceID); err != nil {
		return fmt.Errorf("automatic event source creation failed: %w", err)
	}

	e.logger.Info().Str("site_url", inst.SiteURL).Msg("Retrying event submission")
	return e.deliver(ctx, inst, event)
}

// SendTerminal sends a SUCCESSFUL or FAILED event to every installation.
// Failures are logged and counted, never returned.
func (e *Emitter) SendTerminal(ctx context.Context, installations []deployment.Installation, state deployment.State, details deployment.EventDetails) int {
	if len(installations) == 0 {
		return 0
	}

	event := e.run.NewEvent(state, details, e.now())

	failures := 0
	for _, inst := range installations {
		if err := e.deliver(ctx, inst, event); err != nil {
			failures++
			e.logger.Error().
				Err(err).
				Str("site_url", inst.SiteURL).
				Str("state", string(state)).
				Msg("Failed to send deployment event")
		}
	}

	if failures > 0 {
		e.logger.Warn().
			Int("failed", failures).
			Str("state", string(state)).
			Msg("Deployment notifications failed to send - deployments may appear stuck in IN_PROGRESS in Compass")
	}
	return failures
}

func (e *Emitter) deliver(ctx context.Context, inst deployment.Installation, event deployment.Event) error {
	payload := deployment.BuildPayload(e.run, inst, event, e.eventSourceID)
	if err := payload.Validate(e.run); err != nil {
		return err
	}

	if e.dryRun {
		body, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		e.logger.Info().
			Str("site_url", inst.SiteURL).
			Str("state", string(event.State)).
			RawJSON("payload", body).
			Msg("DRY RUN: would send deployment event")
		return nil
	}

	if err := e.api.SendEvent(ctx, payload); err != nil {
		return err
	}

	e.logger.Info().
		Str("site_url", inst.SiteURL).
		Str("state", string(event.State)).
		Int64("sequence_number", event.SequenceNumber).
		Msg("Deployment event sent")
	return nil
}
