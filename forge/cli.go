package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/imranansari/dev-scripts/process"
)

// CLI wraps the Forge command line tool
type CLI struct {
	binary string
	runner process.Runner
	out    io.Writer
	logger zerolog.Logger
}

// NewCLI creates a Forge CLI wrapper. Deploy output is echoed to out.
func NewCLI(binary string, runner process.Runner, out io.Writer, logger zerolog.Logger) *CLI {
	if binary == "" {
		binary = "forge"
	}
	if out == nil {
		out = io.Discard
	}
	return &CLI{binary: binary, runner: runner, out: out, logger: logger}
}

// Installation is one record of `forge install list --json`
type Installation struct {
	ID          string `json:"id"`
	Site        string `json:"site"`
	Environment string `json:"environment"`
	Product     string `json:"product"`
}

// ListInstallations returns every installation of the app, regardless of environment
func (c *CLI) ListInstallations(ctx context.Context) ([]Installation, error) {
	result, err := c.runner.Run(ctx, c.binary, "install", "list", "--json")
	if err != nil {
		return nil, fmt.Errorf("failed to list forge installations: %w", err)
	}

	var installations []Installation
	if err := json.Unmarshal([]byte(result.Stdout), &installations); err != nil {
		return nil, fmt.Errorf("failed to parse forge installations JSON: %w", err)
	}

	for i := range installations {
		if installations[i].Environment == "" {
			installations[i].Environment = "unknown"
		}
	}
	return installations, nil
}

// User is the account the Forge CLI is logged in as
type User struct {
	Name      string
	AccountID string
}

// WhoAmI returns the logged-in Forge user
func (c *CLI) WhoAmI(ctx context.Context) (User, error) {
	result, err := c.runner.Run(ctx, c.binary, "whoami")
	if err != nil {
		return User{}, fmt.Errorf(`failed to execute "forge whoami" - run "forge login" to authenticate: %w`, err)
	}

	var user User
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Logged in as:"):
			user.Name = strings.TrimSpace(strings.TrimPrefix(line, "Logged in as:"))
		case strings.HasPrefix(line, "Logged in as "):
			user.Name = strings.TrimSpace(strings.TrimPrefix(line, "Logged in as "))
		case strings.HasPrefix(line, "Account ID:"):
			user.AccountID = strings.TrimSpace(strings.TrimPrefix(line, "Account ID:"))
		}
	}

	if user.Name == "" || user.AccountID == "" {
		return User{}, fmt.Errorf(`unable to read user information from "forge whoami" - run "forge login" to authenticate`)
	}
	return user, nil
}

var versionPattern = regexp.MustCompile(`\[(\d+\.\d+\.\d+)\]`)

// ExtractVersion returns the first bracketed x.y.z version in output, or ""
func ExtractVersion(output string) string {
	match := versionPattern.FindStringSubmatch(output)
	if match == nil {
		return ""
	}
	return match[1]
}

// DeployResult is the outcome of `forge deploy`
type DeployResult struct {
	Output  string
	Version string
}

// Deploy runs `forge deploy`, adding --environment when environment is set.
// Blocks until the CLI exits; a non-zero exit is returned as an error wrapping
// *process.ExitError.
func (c *CLI) Deploy(ctx context.Context, environment string) (DeployResult, error) {
	args := []string{"deploy"}
	if environment != "" {
		args = append(args, "--environment", environment)
	}

	c.logger.Info().Str("environment", environment).Msg("Running forge deploy")

	result, err := c.runner.Run(ctx, c.binary, args...)
	if result.Stdout != "" {
		fmt.Fprintln(c.out, result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprintln(c.out, result.Stderr)
	}

	deployed := DeployResult{Output: result.Combined()}
	deployed.Version = ExtractVersion(deployed.Output)

	if err != nil {
		return deployed, fmt.Errorf("forge deploy command failed: %w", err)
	}

	if deployed.Version != "" {
		c.logger.Info().Str("version", deployed.Version).Msg("Detected deployed version")
	} else {
		c.logger.Warn().Msg("Could not extract version from forge deploy output")
	}
	return deployed, nil
}

var urlPattern = regexp.MustCompile(`https://\S+`)

// WebTriggerURL looks up the URL of the web trigger key installed on site for
// environment. It returns "" when the trigger has not been created.
func (c *CLI) WebTriggerURL(ctx context.Context, key, site, environment string) (string, error) {
	result, err := c.runner.Run(ctx, c.binary,
		"webtrigger", "list",
		"-f", key,
		"-e", environment,
		"-s", site,
		"-p", "Compass",
	)
	if err != nil {
		return "", fmt.Errorf("failed to list web triggers for %s: %w", key, err)
	}

	if strings.Contains(result.Stdout, "No webtrigger URLs created") {
		c.logger.Warn().Str("trigger", key).Msg("Web trigger not found - it may not be deployed yet")
		return "", nil
	}

	for _, line := range strings.Split(result.Stdout, "\n") {
		if url := urlPattern.FindString(line); url != "" {
			return url, nil
		}
	}

	c.logger.Warn().Str("trigger", key).Msg("Could not find URL in webtrigger list output")
	return "", nil
}
