package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specfold/specfold/internal/ears"
	"github.com/specfold/specfold/internal/spec"
)

// NewEARSCommand creates the ears command.
func NewEARSCommand(rootOpts *RootOptions) *cobra.Command {
	var failUnder int

	cmd := &cobra.Command{
		Use:   "ears <spec-id>",
		Short: "Validate a spec's requirements against EARS syntax",
		Long: `Validate a spec's requirements against EARS syntax.

Each requirement is classified into one of the five EARS shapes
(ubiquitous, event-driven, state-driven, optional, unwanted-behavior)
and checked for quality issues: missing modal verbs, length bounds,
ambiguous words, and vague terms. Prints a per-requirement report, the
0-100 compliance score, and a recommendation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEARS(rootOpts, cmd, args[0], failUnder)
		},
	}

	cmd.Flags().IntVar(&failUnder, "fail-under", 0, "exit nonzero when the score is below this value")
	return cmd
}

func runEARS(opts *RootOptions, cmd *cobra.Command, specID string, failUnder int) error {
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
	parsed, err := spec.ParseSpec(content)
	if err != nil {
		return WrapExitError(ExitFailure, "parse base spec", err)
	}

	summary := ears.ValidateRequirements(parsed)

	if opts.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		printEARSSummary(cmd, summary)
	}

	if failUnder > 0 && summary.Score < failUnder {
		return NewExitError(ExitFailure, fmt.Sprintf(
			"EARS score %d is below --fail-under %d", summary.Score, failUnder))
	}
	return nil
}

func printEARSSummary(cmd *cobra.Command, summary ears.Summary) {
	out := cmd.OutOrStdout()
	for _, res := range summary.Results {
		mark := "✓"
		if !res.IsCompliant {
			mark = "✗"
		}
		fmt.Fprintf(out, "%s [%s] %s\n", mark, res.Type, res.Text)
		for _, issue := range res.Issues {
			fmt.Fprintf(out, "    - %s\n", issue)
		}
		if res.Suggestion != "" {
			fmt.Fprintf(out, "    → %s\n", res.Suggestion)
		}
	}
	fmt.Fprintf(out, "\nScore: %d/100 (%d of %d compliant)\n",
		summary.Score, summary.Compliant, summary.Total)
	fmt.Fprintf(out, "%s\n", summary.Recommendation)
}
