package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specfold/specfold/internal/qa"
	"github.com/specfold/specfold/internal/spec"
	"github.com/specfold/specfold/internal/workflow"
)

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var qaReportPath string

	cmd := &cobra.Command{
		Use:   "move <spec-id> <stage>",
		Short: "Move a spec to the next lifecycle stage",
		Long: `Move a spec to the next lifecycle stage.

Stages are linear: spec → test → code → qa → complete → archived.
Each move is gated: test needs requirements, code needs test files, qa
needs implementation files, and complete needs a GO QA report supplied
with --qa-report. Use "specfold archive" for the final stage.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(rootOpts, cmd, args[0], spec.Stage(args[1]), qaReportPath)
		},
	}

	cmd.Flags().StringVar(&qaReportPath, "qa-report", "", "QA report JSON file (required for complete)")
	return cmd
}

func runMove(opts *RootOptions, cmd *cobra.Command, id string, to spec.Stage, qaReportPath string) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := openProject(ctx, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	before, err := p.engine.Get(id)
	if err != nil {
		return wrapTransitionErr(err)
	}
	from := before.Stage

	switch to {
	case spec.StageTest:
		err = p.engine.MoveToTest(id)
	case spec.StageCode:
		err = p.engine.MoveToCode(id)
	case spec.StageQA:
		err = p.engine.MoveToQA(id)
	case spec.StageComplete:
		var report *qa.Report
		if qaReportPath != "" {
			report, err = qa.Load(qaReportPath)
			if err != nil {
				return WrapExitError(ExitFailure, "load QA report", err)
			}
		}
		err = p.engine.MoveToComplete(id, report)
	case spec.StageArchived:
		err = p.engine.Archive(id)
	default:
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown stage %q: must be one of test, code, qa, complete, archived", to))
	}
	if err != nil {
		return wrapTransitionErr(err)
	}

	if err := persistMove(ctx, p, id, from, to); err != nil {
		return err
	}
	return formatter.Success(fmt.Sprintf("Moved %s: %s → %s", id, from, to))
}

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <spec-id>",
		Short: "Archive a completed spec",
		Long: `Archive a completed spec.

Only specs in the complete stage can be archived. Specs are never
deleted; archived is their terminal stage.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(rootOpts, cmd, args[0])
		},
	}
}

func runArchive(opts *RootOptions, cmd *cobra.Command, id string) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := openProject(ctx, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	before, err := p.engine.Get(id)
	if err != nil {
		return wrapTransitionErr(err)
	}
	from := before.Stage

	if err := p.engine.Archive(id); err != nil {
		return wrapTransitionErr(err)
	}
	if err := persistMove(ctx, p, id, from, spec.StageArchived); err != nil {
		return err
	}
	return formatter.Success(fmt.Sprintf("Archived %s", id))
}

// NewAttachCommand creates the attach command.
func NewAttachCommand(rootOpts *RootOptions) *cobra.Command {
	var testFiles, implFiles []string

	cmd := &cobra.Command{
		Use:   "attach <spec-id>",
		Short: "Attach test or implementation files to a spec",
		Long: `Attach test or implementation files to a spec.

Attached files satisfy the test → code and code → qa stage gates.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttach(rootOpts, cmd, args[0], testFiles, implFiles)
		},
	}

	cmd.Flags().StringArrayVar(&testFiles, "test", nil, "test file to attach (repeatable)")
	cmd.Flags().StringArrayVar(&implFiles, "impl", nil, "implementation file to attach (repeatable)")
	return cmd
}

func runAttach(opts *RootOptions, cmd *cobra.Command, id string, testFiles, implFiles []string) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if len(testFiles) == 0 && len(implFiles) == 0 {
		return NewExitError(ExitCommandError, "nothing to attach: pass --test and/or --impl")
	}

	p, err := openProject(ctx, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	for _, f := range testFiles {
		if err := p.engine.AddTestFile(id, f); err != nil {
			return wrapTransitionErr(err)
		}
	}
	for _, f := range implFiles {
		if err := p.engine.AddImplementationFile(id, f); err != nil {
			return wrapTransitionErr(err)
		}
	}

	if err := p.saveSpec(ctx, id); err != nil {
		return WrapExitError(ExitCommandError, "save spec to tracker", err)
	}
	return formatter.Success(fmt.Sprintf("Attached %d test and %d implementation file(s) to %s",
		len(testFiles), len(implFiles), id))
}

// persistMove saves the spec, appends the transition row, and
// refreshes the tracking document.
func persistMove(ctx context.Context, p *project, id string, from, to spec.Stage) error {
	sp, err := p.engine.Get(id)
	if err != nil {
		return wrapTransitionErr(err)
	}
	if err := p.store.SaveSpec(ctx, sp); err != nil {
		return WrapExitError(ExitCommandError, "save spec to tracker", err)
	}
	if err := p.store.RecordTransition(ctx, id, from, to, sp.UpdatedAt); err != nil {
		return WrapExitError(ExitCommandError, "record transition", err)
	}
	if err := p.writeTrackingDoc(ctx); err != nil {
		return WrapExitError(ExitCommandError, "write tracking document", err)
	}
	return nil
}

// wrapTransitionErr maps engine errors onto exit codes: not-found is a
// command error (with a tip), refused gates are validation failures.
func wrapTransitionErr(err error) error {
	if workflow.IsNotFound(err) {
		return WrapExitError(ExitCommandError, "spec not tracked (run \"specfold status\" to list specs)", err)
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}
