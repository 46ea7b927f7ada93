package github

import (
	"context"
	"strings"

	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"
)

// CommitURLResolver confirms a commit exists upstream and returns its web link
type CommitURLResolver struct {
	client *github.Client
	logger zerolog.Logger
}

// NewCommitURLResolver creates a resolver backed by client
func NewCommitURLResolver(client *github.Client, logger zerolog.Logger) *CommitURLResolver {
	return &CommitURLResolver{client: client, logger: logger}
}

// Resolve returns the html_url GitHub reports for sha in the "owner/repo" slug.
// Any failure, including an unpushed commit, is logged and fallback is returned.
func (r *CommitURLResolver) Resolve(ctx context.Context, slug, sha, fallback string) string {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" {
		r.logger.Warn().Str("project_slug", slug).Msg("Project slug is not in owner/repo form, keeping constructed URL")
		return fallback
	}

	commit, _, err := r.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("project_slug", slug).
			Str("sha", sha).
			Msg("Could not verify commit on GitHub, keeping constructed URL")
		return fallback
	}

	url := commit.GetHTMLURL()
	if url == "" {
		return fallback
	}

	r.logger.Debug().Str("url", url).Msg("Commit verified on GitHub")
	return url
}
