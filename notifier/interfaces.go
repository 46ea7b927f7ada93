package notifier

import (
	"context"

	"github.com/imranansari/dev-scripts/deployment"
	"github.com/imranansari/dev-scripts/forge"
)

// ForgeCLI is the subset of the Forge CLI used during a deployment run
type ForgeCLI interface {
	ListInstallations(ctx context.Context) ([]forge.Installation, error)
	WhoAmI(ctx context.Context) (forge.User, error)
	Deploy(ctx context.Context, environment string) (forge.DeployResult, error)
	WebTriggerURL(ctx context.Context, key, site, environment string) (string, error)
}

// CompassAPI is the subset of the Compass client used during a deployment run
type CompassAPI interface {
	CloudID(ctx context.Context, siteURL string) (string, error)
	FindComponentBySlug(ctx context.Context, siteURL, cloudID, slug string) (string, error)
	EventAPI
}

// EventAPI delivers events and repairs a missing event source
type EventAPI interface {
	SendEvent(ctx context.Context, payload deployment.Payload) error
	EnsureEventSource(ctx context.Context, inst deployment.Installation, externalSourceID string) error
}

// CommitResolver swaps a constructed commit link for the one the code host reports
type CommitResolver interface {
	Resolve(ctx context.Context, slug, sha, fallback string) string
}
