// Package gitinfo reads the branch and commit of the working tree being deployed.
package gitinfo

import (
	"context"

	"github.com/imranansari/dev-scripts/process"
)

// Unknown is reported for any value git could not provide
const Unknown = "unknown"

// Info describes the checked-out commit
type Info struct {
	Branch    string
	ShortHash string
	FullHash  string
}

// HasCommit reports whether a full commit hash was resolved
func (i Info) HasCommit() bool {
	return i.FullHash != "" && i.FullHash != Unknown
}

// Read queries git through runner. Missing git or a directory outside a
// repository yields Unknown values, never an error.
func Read(ctx context.Context, runner process.Runner) Info {
	return Info{
		Branch:    revParse(ctx, runner, "--abbrev-ref", "HEAD"),
		ShortHash: revParse(ctx, runner, "--short", "HEAD"),
		FullHash:  revParse(ctx, runner, "HEAD"),
	}
}

func revParse(ctx context.Context, runner process.Runner, args ...string) string {
	result, err := runner.Run(ctx, "git", append([]string{"rev-parse"}, args...)...)
	if err != nil || result.Stdout == "" {
		return Unknown
	}
	return result.Stdout
}
