package forge

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imranansari/dev-scripts/process"
	"github.com/imranansari/dev-scripts/process/processtest"
)

func newTestCLI(responses map[string]processtest.Response) (*CLI, *processtest.Fake, *bytes.Buffer) {
	fake := processtest.New(responses)
	out := &bytes.Buffer{}
	return NewCLI("forge", fake, out, zerolog.Nop()), fake, out
}

func TestListInstallations(t *testing.T) {
	cli, _, _ := newTestCLI(map[string]processtest.Response{
		"forge install list --json": {Stdout: `[
			{"id":"i-1","site":"acme.atlassian.net","environment":"development","product":"Compass"},
			{"id":"i-2","site":"other.atlassian.net","product":"Compass"}
		]`},
	})

	installations, err := cli.ListInstallations(context.Background())
	require.NoError(t, err)
	require.Len(t, installations, 2)
	assert.Equal(t, "acme.atlassian.net", installations[0].Site)
	assert.Equal(t, "development", installations[0].Environment)
	assert.Equal(t, "unknown", installations[1].Environment)
}

func TestListInstallations_Failures(t *testing.T) {
	tests := []struct {
		name string
		resp processtest.Response
	}{
		{name: "non-zero exit", resp: processtest.Response{ExitCode: 1, Stderr: "not logged in"}},
		{name: "invalid json", resp: processtest.Response{Stdout: "Installations:\n  acme"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, _ := newTestCLI(map[string]processtest.Response{"forge install list --json": tt.resp})
			_, err := cli.ListInstallations(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestWhoAmI(t *testing.T) {
	cli, _, _ := newTestCLI(map[string]processtest.Response{
		"forge whoami": {Stdout: "Logged in as: Jane Dev\nAccount ID: 5f0c1234"},
	})

	user, err := cli.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, User{Name: "Jane Dev", AccountID: "5f0c1234"}, user)
}

func TestWhoAmI_NotLoggedIn(t *testing.T) {
	cli, _, _ := newTestCLI(map[string]processtest.Response{
		"forge whoami": {Stdout: "Not logged in"},
	})

	_, err := cli.WhoAmI(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forge login")
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{output: "✔ Deployed\n\nDeployed my-app to the development environment [1.2.3].", want: "1.2.3"},
		{output: "deployed [10.0.42] then [11.0.0]", want: "10.0.42"},
		{output: "deployed [1.2] only", want: ""},
		{output: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractVersion(tt.output), tt.output)
	}
}

func TestDeploy(t *testing.T) {
	cli, fake, out := newTestCLI(map[string]processtest.Response{
		"forge deploy --environment development": {Stdout: "deployed [1.2.3]"},
	})

	result, err := cli.Deploy(context.Background(), "development")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", result.Version)
	assert.Equal(t, "deployed [1.2.3]", result.Output)
	assert.Contains(t, out.String(), "deployed [1.2.3]")
	assert.Equal(t, []string{"forge deploy --environment development"}, fake.Calls())
}

func TestDeploy_NoEnvironment(t *testing.T) {
	cli, fake, _ := newTestCLI(map[string]processtest.Response{
		"forge deploy": {Stdout: "deployed"},
	})

	result, err := cli.Deploy(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, result.Version)
	assert.True(t, fake.Called("forge deploy"))
}

func TestDeploy_Failure(t *testing.T) {
	cli, _, _ := newTestCLI(map[string]processtest.Response{
		"forge deploy --environment staging": {Stderr: "Error: lint failed", ExitCode: 1},
	})

	result, err := cli.Deploy(context.Background(), "staging")
	require.Error(t, err)

	var exitErr *process.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.ExitCode)
	assert.Contains(t, result.Output, "lint failed")
}

func TestWebTriggerURL(t *testing.T) {
	const line = "forge webtrigger list -f sql-migrate -e development -s acme.atlassian.net -p Compass"

	tests := []struct {
		name    string
		resp    processtest.Response
		want    string
		wantErr bool
	}{
		{
			name: "found",
			resp: processtest.Response{Stdout: "Web trigger URLs:\n  https://abc.hello.atlassian-dev.net/x1/trigger\n"},
			want: "https://abc.hello.atlassian-dev.net/x1/trigger",
		},
		{
			name: "not created",
			resp: processtest.Response{Stdout: "No webtrigger URLs created for sql-migrate"},
		},
		{
			name: "no url in output",
			resp: processtest.Response{Stdout: "something unexpected"},
		},
		{
			name:    "command failed",
			resp:    processtest.Response{ExitCode: 2, Stderr: "unknown site"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, _ := newTestCLI(map[string]processtest.Response{line: tt.resp})
			url, err := cli.WebTriggerURL(context.Background(), "sql-migrate", "acme.atlassian.net", "development")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, url)
		})
	}
}
