package notifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/imranansari/dev-scripts/catalog"
	"github.com/imranansari/dev-scripts/deployment"
	"github.com/imranansari/dev-scripts/gitinfo"
)

// maxDescriptionLength is the longest description Compass accepts, in characters
const maxDescriptionLength = 255

// BuildDescription renders the event description. SUCCESSFUL events lead with
// the deployed version when one was reported.
func BuildDescription(state deployment.State, version string, git gitinfo.Info, forgeUser string) string {
	var b strings.Builder
	if state == deployment.StateSuccessful && version != "" {
		fmt.Fprintf(&b, "Version: %s\n", version)
	}
	fmt.Fprintf(&b, "Branch: %s\nLast Commit: %s\nForge User: %s", git.Branch, git.ShortHash, forgeUser)

	description := b.String()
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		description = string([]rune(description)[:maxDescriptionLength-3]) + "..."
	}
	return description
}

// eventDetails builds the per-state text of the run's events
func eventDetails(component catalog.Component, git gitinfo.Info, forgeUser string, state deployment.State, version string) deployment.EventDetails {
	return deployment.EventDetails{
		DisplayName:         component.Name + " deployment",
		PipelineDisplayName: "Local Forge Deployment - " + git.ShortHash,
		Description:         BuildDescription(state, version, git, forgeUser),
	}
}

// RunURL links the run to its commit on GitHub when the repository and commit
// are known, otherwise to a placeholder unique to the run.
func RunURL(component catalog.Component, git gitinfo.Info, runID string) string {
	if component.ProjectSlug != "" && git.HasCommit() {
		return fmt.Sprintf("https://github.com/%s/commit/%s", component.ProjectSlug, git.FullHash)
	}
	return fmt.Sprintf("https://localhost/%s/%s", component.Name, runID)
}
