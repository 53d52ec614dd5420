package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specfold/specfold/internal/tracker"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [spec-id]",
		Short: "Show tracked specs and their stages",
		Long: `Show tracked specs and their stages.

With a spec ID, prints the spec's details and its stage-transition
history. Also regenerates the markdown tracking document.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runStatus(rootOpts, cmd, id)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command, id string) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := openProject(ctx, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.writeTrackingDoc(ctx); err != nil {
		formatter.VerboseLog("tracking doc not updated: %v", err)
	}

	if id == "" {
		specs := p.engine.List()
		if opts.Format == "json" {
			return formatter.Success(specs)
		}
		if len(specs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No specs tracked yet. Create one with \"specfold new\".")
			return nil
		}
		for _, sp := range specs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s %s (%d requirement(s))\n",
				sp.ID, tracker.StageDisplay(sp.Stage), sp.Name, len(sp.Requirements))
		}
		return nil
	}

	sp, err := p.engine.Get(id)
	if err != nil {
		return wrapTransitionErr(err)
	}
	history, err := p.store.History(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "load transition history", err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"spec":    sp,
			"history": history,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s\n", sp.ID, sp.Name)
	fmt.Fprintf(out, "Stage:        %s\n", tracker.StageDisplay(sp.Stage))
	fmt.Fprintf(out, "Requirements: %d\n", len(sp.Requirements))
	fmt.Fprintf(out, "Test files:   %d\n", len(sp.TestFiles))
	fmt.Fprintf(out, "Impl files:   %d\n", len(sp.ImplementationFiles))
	if sp.QAReport != nil {
		fmt.Fprintf(out, "QA:           %s (coverage %.1f%%)\n",
			sp.QAReport.Recommendation, sp.QAReport.Coverage)
	}
	if len(history) > 0 {
		fmt.Fprintln(out, "History:")
		for _, tr := range history {
			fmt.Fprintf(out, "  %s  %s → %s\n", tr.At.Format("2006-01-02 15:04"), tr.From, tr.To)
		}
	}
	return nil
}
