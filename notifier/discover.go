package notifier

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/imranansari/dev-scripts/compass"
	"github.com/imranansari/dev-scripts/deployment"
)

// Discover lists the app's Forge installations and resolves each site's cloud ID.
// It never fails: a CLI error yields no installations and a failed cloud ID
// lookup drops that installation.
func Discover(ctx context.Context, cli ForgeCLI, api CompassAPI, logger zerolog.Logger) []deployment.Installation {
	records, err := cli.ListInstallations(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to get forge installations")
		return nil
	}

	var installations []deployment.Installation
	for _, record := range records {
		cloudID, err := api.CloudID(ctx, record.Site)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("site_url", record.Site).
				Msg("Could not resolve cloud ID, skipping installation")
			continue
		}

		installations = append(installations, deployment.Installation{
			SiteURL:          record.Site,
			CloudID:          cloudID,
			EnvironmentLabel: record.Environment,
		})
	}

	logger.Info().
		Int("listed", len(records)).
		Int("discovered", len(installations)).
		Msg("Discovered forge installations")

	return installations
}

// Verify keeps the installations whose site has a component with slug and
// fills in its component ID. Installations that fail the lookup are skipped;
// when none remain the run cannot proceed.
func Verify(ctx context.Context, api CompassAPI, installations []deployment.Installation, slug string, logger zerolog.Logger) ([]deployment.Installation, error) {
	var verified []deployment.Installation
	for _, inst := range installations {
		componentID, err := api.FindComponentBySlug(ctx, inst.Host(), inst.CloudID, slug)
		if err != nil {
			event := logger.Warn().Err(err).Str("site_url", inst.SiteURL).Str("slug", slug)
			if compass.IsComponentNotFound(err) {
				event.Msg("Component not found in installation")
			} else {
				event.Msg("Failed to verify component in installation")
			}
			continue
		}

		inst.ComponentID = componentID
		verified = append(verified, inst)
		logger.Info().
			Str("site_url", inst.SiteURL).
			Str("component_id", componentID).
			Msg("Component verified")
	}

	if len(installations) > 0 && len(verified) == 0 {
		return nil, fmt.Errorf("found %d forge installation(s) but component %q exists in none of them: %w",
			len(installations), slug, ErrNoVerifiedInstallations)
	}
	return verified, nil
}
