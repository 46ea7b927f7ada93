package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imranansari/dev-scripts/deployment"
	"github.com/imranansari/dev-scripts/forge"
	"github.com/imranansari/dev-scripts/process/processtest"
)

const installListJSON = `[
	{"id":"i-1","site":"acme.atlassian.net","environment":"development","product":"Compass"},
	{"id":"i-2","site":"gone.atlassian.net","environment":"staging","product":"Compass"},
	{"id":"i-3","site":"other.atlassian.net","environment":"production","product":"Compass"}
]`

func newForge(responses map[string]processtest.Response) *forge.CLI {
	return forge.NewCLI("forge", processtest.New(responses), nil, zerolog.Nop())
}

func TestDiscover_DropsUnresolvedSites(t *testing.T) {
	cli := newForge(map[string]processtest.Response{
		"forge install list --json": {Stdout: installListJSON},
	})
	api := newFakeCompass(nil)
	api.addSite("acme.atlassian.net", "cloud-acme", "")
	api.addSite("other.atlassian.net", "cloud-other", "")

	installations := Discover(context.Background(), cli, api, zerolog.Nop())

	assert.Equal(t, []deployment.Installation{
		{SiteURL: "acme.atlassian.net", CloudID: "cloud-acme", EnvironmentLabel: "development"},
		{SiteURL: "other.atlassian.net", CloudID: "cloud-other", EnvironmentLabel: "production"},
	}, installations)
}

func TestDiscover_CLIFailureIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		resp processtest.Response
	}{
		{name: "command fails", resp: processtest.Response{ExitCode: 1, Stderr: "Error: not logged in"}},
		{name: "not json", resp: processtest.Response{Stdout: "No installations"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := newForge(map[string]processtest.Response{"forge install list --json": tt.resp})
			assert.Empty(t, Discover(context.Background(), cli, newFakeCompass(nil), zerolog.Nop()))
		})
	}
}

func TestVerify_Partial(t *testing.T) {
	api := newFakeCompass(nil)
	api.addSite("https://acme.atlassian.net/", "cloud-acme", "comp-acme")

	installations := []deployment.Installation{
		{SiteURL: "https://acme.atlassian.net/", CloudID: "cloud-acme"},
		{SiteURL: "other.atlassian.net", CloudID: "cloud-other"},
	}

	verified, err := Verify(context.Background(), api, installations, "svc-a", zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, verified, 1)
	assert.Equal(t, "comp-acme", verified[0].ComponentID)
	assert.Equal(t, "https://acme.atlassian.net/", verified[0].SiteURL)
}

func TestVerify_NoneVerified(t *testing.T) {
	api := newFakeCompass(nil)

	_, err := Verify(context.Background(), api, testInstallations(2), "svc-a", zerolog.Nop())
	assert.True(t, errors.Is(err, ErrNoVerifiedInstallations))
}

func TestVerify_NoInstallations(t *testing.T) {
	verified, err := Verify(context.Background(), newFakeCompass(nil), nil, "svc-a", zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, verified)
}
