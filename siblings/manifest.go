package siblings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"
	"gopkg.in/yaml.v3"
)

// DefaultFiles are the repository files shared between sibling checkouts
var DefaultFiles = []string{
	".circleci/helpers/check-eslint-disable.sh",
	".circleci/helpers/check-markdown-placement.sh",
	".circleci/helpers/check-unpkg-usage.sh",
	".cursor",
	".prettierrc.cjs",
	"AGENTS.md",
	"CONTRIBUTING.md",
	"eslint.config.mjs",
	"eslint-local-rules/index.mjs",
	"eslint-local-rules/no-consecutive-logging.mjs",
	"scripts/list-pr-checks.sh",
	"scripts/list-pr-comments.sh",
	"scripts/list-sonar-issues.sh",
	"scripts/local_deployment_notifier.py",
	"scripts/run-ci-checks-local.sh",
	"scripts/upgrade-all-packages.sh",
}

// Manifest lists repo-relative files and directories to copy. Entries may be
// glob patterns, including ** for any depth.
type Manifest struct {
	Files []string `yaml:"files"`
}

// DefaultManifest returns the built-in file list
func DefaultManifest() Manifest {
	return Manifest{Files: append([]string(nil), DefaultFiles...)}
}

// LoadManifest reads a YAML manifest of the form "files: [...]"
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(m.Files) == 0 {
		return Manifest{}, fmt.Errorf("manifest %s lists no files", path)
	}
	return m, nil
}

// Expand resolves glob entries against root and returns repo-relative paths in
// manifest order without duplicates. A pattern with no match is kept verbatim
// so it is reported as missing.
func (m Manifest) Expand(root string) ([]string, error) {
	seen := make(map[string]bool)
	var items []string
	add := func(item string) {
		item = filepath.ToSlash(filepath.Clean(item))
		if !seen[item] {
			seen[item] = true
			items = append(items, item)
		}
	}

	for _, entry := range m.Files {
		if !isPattern(entry) {
			add(entry)
			continue
		}

		matches, err := zglob.Glob(filepath.Join(root, entry))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				add(entry)
				continue
			}
			return nil, fmt.Errorf("invalid pattern %q: %w", entry, err)
		}
		if len(matches) == 0 {
			add(entry)
			continue
		}

		sort.Strings(matches)
		for _, match := range matches {
			rel, err := filepath.Rel(root, match)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", match, err)
			}
			add(rel)
		}
	}
	return items, nil
}

func isPattern(entry string) bool {
	return strings.ContainsAny(entry, "*?[{")
}
