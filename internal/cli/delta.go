package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specfold/specfold/internal/delta"
	"github.com/specfold/specfold/internal/merge"
	"github.com/specfold/specfold/internal/spec"
)

// NewDeltaCommand creates the delta command group.
func NewDeltaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delta",
		Short: "Validate, preview, and apply delta specs",
	}
	cmd.AddCommand(newDeltaValidateCommand(rootOpts))
	cmd.AddCommand(newDeltaDiffCommand(rootOpts))
	cmd.AddCommand(newDeltaApplyCommand(rootOpts))
	return cmd
}

func newDeltaValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <delta-file>",
		Short: "Validate a delta spec file",
		Long: `Validate a delta spec file without touching the base spec.

Parsing is lenient (malformed sections contribute nothing); this
command surfaces what the parser silently dropped: an empty change set,
duplicate IDs within a section, or IDs spanning ADDED/MODIFIED/REMOVED.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeltaValidate(rootOpts, cmd, args[0])
		},
	}
}

func runDeltaValidate(opts *RootOptions, cmd *cobra.Command, path string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	d, err := parseDeltaFile(path, "")
	if err != nil {
		return err
	}

	result := delta.Validate(d)
	if !result.Valid {
		if opts.Format == "json" {
			formatter.Error(result.Errors[0].Code, "delta spec is invalid", result.Errors)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Delta %s is invalid:\n", d.ID)
			for _, ve := range result.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", ve)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("delta %s failed validation", d.ID))
	}

	return formatter.Success(fmt.Sprintf("Delta %s is valid: +%d ~%d -%d change(s)",
		d.ID, len(d.Added), len(d.Modified), len(d.Removed)))
}

func newDeltaDiffCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <spec-id>",
		Short: "Preview the merge of all pending deltas",
		Long: `Preview what applying the pending deltas would change.

Prints a line diff per delta without writing anything to disk.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeltaDiff(rootOpts, cmd, args[0])
		},
	}
}

func runDeltaDiff(opts *RootOptions, cmd *cobra.Command, specID string) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := openProject(ctx, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	content, _, err := p.readSpecFile(specID)
	if err != nil {
		return WrapExitError(ExitCommandError, "load base spec", err)
	}

	deltas, err := loadDeltas(p, specID)
	if err != nil {
		return err
	}

	current := content
	for _, d := range deltas {
		fmt.Fprint(cmd.OutOrStdout(), merge.Diff(current, d))
		current = merge.Merge(current, d).Content
	}
	formatter.VerboseLog("Previewed %d delta(s), nothing written", len(deltas))
	return nil
}

func newDeltaApplyCommand(rootOpts *RootOptions) *cobra.Command {
	var force, dryRun bool

	cmd := &cobra.Command{
		Use:   "apply <spec-id>",
		Short: "Apply all pending deltas to a base spec",
		Long: `Apply all pending deltas to a base spec.

Deltas are discovered in the deltas directory by the
DELTA-<spec-id>-*.md naming convention, sorted by filename, validated,
and folded into the base spec one at a time. Conflicts (duplicate adds,
missing modify/remove targets) are advisory: they are listed, and
without --force nothing is written. On success the merged spec is
written back and the consumed delta files move to the applied
directory.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeltaApply(rootOpts, cmd, args[0], force, dryRun)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "apply even when the merge reports conflicts")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "merge and report, but write nothing")
	return cmd
}

func runDeltaApply(opts *RootOptions, cmd *cobra.Command, specID string, force, dryRun bool) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := openProject(ctx, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	content, specPath, err := p.readSpecFile(specID)
	if err != nil {
		return WrapExitError(ExitCommandError, "load base spec", err)
	}

	deltaPaths, err := delta.Discover(filepath.Join(p.root, p.cfg.DeltasDir), specID)
	if err != nil {
		return WrapExitError(ExitCommandError, "discover deltas", err)
	}
	if len(deltaPaths) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf(
			"%s: no delta files for %s in %s (expected DELTA-%s-YYYYMMDD.md)",
			spec.ErrNoDeltaFiles, specID, p.cfg.DeltasDir, specID))
	}

	// Fold deltas strictly sequentially: each merge's output is the
	// next merge's input. Stats are summed across the run.
	current := content
	var total merge.Stats
	var conflicts []merge.Conflict
	for _, path := range deltaPaths {
		d, err := parseDeltaFile(path, p.cfg.Author)
		if err != nil {
			return err
		}
		if result := delta.Validate(d); !result.Valid {
			msgs := make([]string, len(result.Errors))
			for i, ve := range result.Errors {
				msgs[i] = ve.Error()
			}
			return NewExitError(ExitFailure, fmt.Sprintf(
				"delta %s failed validation:\n  %s", d.ID, strings.Join(msgs, "\n  ")))
		}

		formatter.VerboseLog("Merging %s", filepath.Base(path))
		res := merge.Merge(current, d)
		current = res.Content
		total.Add(res.Stats)
		conflicts = append(conflicts, res.Conflicts...)
	}

	if len(conflicts) > 0 {
		for _, c := range conflicts {
			fmt.Fprintf(cmd.OutOrStdout(), "! %s\n", c)
		}
		if !force {
			return NewExitError(ExitFailure, fmt.Sprintf(
				"%d conflict(s) detected; re-run with --force to apply anyway", len(conflicts)))
		}
		formatter.VerboseLog("Proceeding past %d conflict(s) (--force)", len(conflicts))
	}

	summary := fmt.Sprintf("Applied %d delta(s) to %s: +%d ~%d -%d, %d conflict(s)",
		len(deltaPaths), specID, total.Added, total.Modified, total.Removed, total.Conflicts)

	if dryRun {
		return formatter.Success(summary + " (dry run, nothing written)")
	}

	if err := os.WriteFile(specPath, []byte(current), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write merged spec", err)
	}

	// Archive consumed deltas. Not atomic with the write above: a crash
	// here leaves deltas un-archived while the base is updated, an
	// accepted at-least-once risk.
	appliedDir := filepath.Join(p.root, p.cfg.AppliedDir)
	if err := os.MkdirAll(appliedDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create applied directory", err)
	}
	for _, path := range deltaPaths {
		if err := os.Rename(path, filepath.Join(appliedDir, filepath.Base(path))); err != nil {
			return WrapExitError(ExitCommandError, "archive applied delta", err)
		}
	}

	// Re-sync the tracker with the merged document.
	if parsed, err := spec.ParseSpec(current); err == nil {
		if err := p.engine.SetRequirements(specID, parsed.Requirements); err == nil {
			if err := p.saveSpec(ctx, specID); err != nil {
				return WrapExitError(ExitCommandError, "save spec to tracker", err)
			}
		}
	}

	return formatter.Success(summary)
}

// loadDeltas discovers, parses, and validates all pending deltas for a
// base spec.
func loadDeltas(p *project, specID string) ([]*delta.Delta, error) {
	paths, err := delta.Discover(filepath.Join(p.root, p.cfg.DeltasDir), specID)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "discover deltas", err)
	}
	if len(paths) == 0 {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf(
			"%s: no delta files for %s in %s", spec.ErrNoDeltaFiles, specID, p.cfg.DeltasDir))
	}

	deltas := make([]*delta.Delta, 0, len(paths))
	for _, path := range paths {
		d, err := parseDeltaFile(path, p.cfg.Author)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}

// parseDeltaFile reads and parses one delta file. The delta ID is the
// filename without extension; the base spec ID and creation date come
// from the filename convention when it is followed.
func parseDeltaFile(path, author string) (*delta.Delta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("delta file %s not found", path))
		}
		return nil, WrapExitError(ExitCommandError, "read delta file", err)
	}

	name := filepath.Base(path)
	deltaID := strings.TrimSuffix(name, filepath.Ext(name))
	baseSpecID, date, ok := delta.ParseFilename(name)

	d := delta.Parse(string(data), deltaID, baseSpecID, author)
	if ok {
		d.CreatedAt = date
	}
	return d, nil
}
