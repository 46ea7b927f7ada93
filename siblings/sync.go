// Package siblings copies a shared set of repository files between sibling
// checkouts that live in the same parent directory.
package siblings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/otiai10/copy"
	"github.com/rs/zerolog"
)

// Direction is which way files flow relative to the current checkout
type Direction string

const (
	DirectionTo   Direction = "to"
	DirectionFrom Direction = "from"
)

// ParseDirection validates a --direction value. An empty value means ask.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", DirectionTo, DirectionFrom:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q: must be %q or %q", s, DirectionTo, DirectionFrom)
}

// ListSiblings returns the sorted names of the directories in parent, except current
func ListSiblings(parent, current string) ([]string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, fmt.Errorf("failed to read parent directory %s: %w", parent, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != current {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// MissingItemError is returned in strict mode when a manifest entry is absent
type MissingItemError struct {
	Root  string
	Items []string
}

func (e *MissingItemError) Error() string {
	return fmt.Sprintf("%d manifest item(s) not found in %s: %v", len(e.Items), e.Root, e.Items)
}

// ExistingItems returns the items present under root. Missing items are
// skipped with a warning, or fail the call when strict is set.
func ExistingItems(root string, items []string, strict bool, logger zerolog.Logger) ([]string, error) {
	var existing, missing []string
	for _, item := range items {
		if _, err := os.Stat(filepath.Join(root, item)); err != nil {
			logger.Warn().Str("item", item).Str("root", root).Msg("Skipping item (not found in source)")
			missing = append(missing, item)
			continue
		}
		existing = append(existing, item)
	}

	if strict && len(missing) > 0 {
		return nil, &MissingItemError{Root: root, Items: missing}
	}
	return existing, nil
}

// CopyItem copies a file or directory from source to target. Files keep their
// mode and modification time and gain any missing parent directories; a
// directory target is removed first so the copy is exact.
func CopyItem(source, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", source, err)
	}

	if info.IsDir() {
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("failed to remove %s: %w", target, err)
		}
	} else if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}

	if err := copy.Copy(source, target, copy.Options{PreserveTimes: true}); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", source, target, err)
	}
	return nil
}

// Options are the non-interactive answers to the sync prompts
type Options struct {
	Direction Direction
	Targets   []string
	All       bool
	Source    string
	Strict    bool
	DryRun    bool
}

// Validate rejects flag combinations that name both directions
func (o Options) Validate() error {
	copyTo := o.All || len(o.Targets) > 0
	switch {
	case copyTo && o.Source != "":
		return errors.New("--from cannot be combined with --to or --all")
	case o.Direction == DirectionFrom && copyTo:
		return errors.New("--direction from cannot be combined with --to or --all")
	case o.Direction == DirectionTo && o.Source != "":
		return errors.New("--direction to cannot be combined with --from")
	}
	return nil
}

// Report counts what a sync did
type Report struct {
	Copied      int
	Directories int
	Errs        *multierror.Error
}

// Err returns the aggregated copy failures, or nil
func (r Report) Err() error {
	return r.Errs.ErrorOrNil()
}

// Syncer copies the manifest between the checkout at root and its siblings
type Syncer struct {
	root     string
	manifest Manifest
	prompter Prompter
	out      io.Writer
	logger   zerolog.Logger
}

// NewSyncer creates a syncer for the checkout at root. prompter may be nil
// when every choice comes from Options.
func NewSyncer(root string, manifest Manifest, prompter Prompter, out io.Writer, logger zerolog.Logger) *Syncer {
	return &Syncer{
		root:     filepath.Clean(root),
		manifest: manifest,
		prompter: prompter,
		out:      out,
		logger:   logger,
	}
}

// Run performs one sync. Per-item copy failures do not stop the sync; they are
// collected in the report and returned together at the end.
func (s *Syncer) Run(opts Options) (Report, error) {
	if err := opts.Validate(); err != nil {
		return Report{}, err
	}

	parent := filepath.Dir(s.root)
	current := filepath.Base(s.root)

	fmt.Fprintf(s.out, "Current repository: %s\nParent directory: %s\n\n", current, parent)

	direction := opts.Direction
	if direction == "" {
		switch {
		case opts.All || len(opts.Targets) > 0:
			direction = DirectionTo
		case opts.Source != "":
			direction = DirectionFrom
		default:
			if s.prompter == nil {
				return Report{}, ErrNotInteractive
			}
			var err error
			if direction, err = s.prompter.SelectDirection(); err != nil {
				return Report{}, err
			}
		}
	}

	siblings, err := ListSiblings(parent, current)
	if err != nil {
		return Report{}, err
	}
	if len(siblings) == 0 {
		fmt.Fprintln(s.out, "No sibling directories found.")
		return Report{}, nil
	}
	fmt.Fprintf(s.out, "Found %d sibling %s.\n\n", len(siblings), directories(len(siblings)))

	if direction == DirectionFrom {
		return s.copyFrom(opts, siblings)
	}
	return s.copyTo(opts, siblings)
}

func (s *Syncer) copyTo(opts Options, siblings []string) (Report, error) {
	items, err := s.items(s.root, opts.Strict)
	if err != nil {
		return Report{}, err
	}
	if len(items) == 0 {
		fmt.Fprintln(s.out, "No source files found in current directory. Exiting.")
		return Report{}, nil
	}

	targets, err := s.targets(opts, siblings)
	if err != nil {
		return Report{}, err
	}
	if len(targets) == 0 {
		fmt.Fprintln(s.out, "No directories selected. Exiting.")
		return Report{}, nil
	}

	report := Report{Directories: len(targets)}
	parent := filepath.Dir(s.root)
	for _, target := range targets {
		s.logger.Info().Str("directory", target).Msg("Copying to sibling")
		s.copyItems(&report, items, s.root, filepath.Join(parent, target), opts.DryRun)
	}

	fmt.Fprintf(s.out, "\nCompleted: Copied %d %s to %d %s.\n",
		report.Copied, files(report.Copied), report.Directories, directories(report.Directories))
	return report, report.Err()
}

func (s *Syncer) copyFrom(opts Options, siblings []string) (Report, error) {
	source := opts.Source
	if source == "" {
		if s.prompter == nil {
			return Report{}, ErrNotInteractive
		}
		var err error
		if source, err = s.prompter.SelectSource(siblings); err != nil {
			return Report{}, err
		}
		if source == "" {
			fmt.Fprintln(s.out, "No directory selected. Exiting.")
			return Report{}, nil
		}
	} else if !contains(siblings, source) {
		return Report{}, fmt.Errorf("%q is not a sibling directory", source)
	}

	sourceDir := filepath.Join(filepath.Dir(s.root), source)
	items, err := s.items(sourceDir, opts.Strict)
	if err != nil {
		return Report{}, err
	}
	if len(items) == 0 {
		fmt.Fprintf(s.out, "No files found in %s. Exiting.\n", source)
		return Report{}, nil
	}

	s.logger.Info().Str("directory", source).Msg("Copying from sibling")

	report := Report{Directories: 1}
	s.copyItems(&report, items, sourceDir, s.root, opts.DryRun)

	fmt.Fprintf(s.out, "\nCompleted: Copied %d %s from %s.\n", report.Copied, files(report.Copied), source)
	return report, report.Err()
}

func (s *Syncer) items(root string, strict bool) ([]string, error) {
	expanded, err := s.manifest.Expand(root)
	if err != nil {
		return nil, err
	}

	items, err := ExistingItems(root, expanded, strict, s.logger)
	if err != nil {
		return nil, err
	}
	if missing := len(expanded) - len(items); missing > 0 && len(items) > 0 {
		fmt.Fprintf(s.out, "Note: %d %s not found in %s and will be skipped.\n\n", missing, files(missing), filepath.Base(root))
	}
	return items, nil
}

func (s *Syncer) targets(opts Options, siblings []string) ([]string, error) {
	if opts.All {
		return siblings, nil
	}

	if len(opts.Targets) > 0 {
		for _, target := range opts.Targets {
			if !contains(siblings, target) {
				return nil, fmt.Errorf("%q is not a sibling directory", target)
			}
		}
		return opts.Targets, nil
	}

	if s.prompter == nil {
		return nil, ErrNotInteractive
	}
	return s.prompter.SelectTargets(siblings)
}

func (s *Syncer) copyItems(report *Report, items []string, fromDir, toDir string, dryRun bool) {
	for _, item := range items {
		source := filepath.Join(fromDir, item)
		target := filepath.Join(toDir, item)

		if dryRun {
			s.logger.Info().Str("item", item).Str("target", target).Msg("DRY RUN: would copy")
			report.Copied++
			continue
		}

		if err := CopyItem(source, target); err != nil {
			s.logger.Error().Err(err).Str("item", item).Msg("Failed to copy")
			report.Errs = multierror.Append(report.Errs, err)
			continue
		}
		s.logger.Info().Str("item", item).Msg("Copied")
		report.Copied++
	}
}

// IsCancelled reports whether err means the user backed out of a prompt
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func files(n int) string {
	if n == 1 {
		return "file"
	}
	return "files"
}

func directories(n int) string {
	if n == 1 {
		return "directory"
	}
	return "directories"
}
