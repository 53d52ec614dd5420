package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/specfold/specfold/internal/spec"
)

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new spec",
		Long: `Create a new spec in the spec stage.

Allocates the next SPEC-YYYYMMDD-NNN ID for today, scaffolds the base
spec markdown file, and registers the spec with the tracker.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(rootOpts, cmd, args[0], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "spec description")
	return cmd
}

func runNew(opts *RootOptions, cmd *cobra.Command, name, description string) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	p, err := openProject(ctx, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	id := nextSpecID(p, time.Now())
	formatter.VerboseLog("Allocated spec ID %s", id)

	s, err := p.engine.CreateSpec(id, name, description, p.cfg.Author, p.cfg.Project)
	if err != nil {
		return WrapExitError(ExitFailure, "create spec", err)
	}

	path := p.specPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create specs directory", err)
	}
	if err := os.WriteFile(path, []byte(spec.RenderSpec(s)), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write spec file", err)
	}

	if err := p.saveSpec(ctx, id); err != nil {
		return WrapExitError(ExitCommandError, "save spec to tracker", err)
	}
	if err := p.writeTrackingDoc(ctx); err != nil {
		formatter.VerboseLog("tracking doc not updated: %v", err)
	}

	return formatter.Success(fmt.Sprintf("Created %s (%s) at %s", id, name, path))
}

// nextSpecID allocates the next free SPEC-YYYYMMDD-NNN ID for the day.
// The engine's duplicate guard makes a race here impossible within one
// process, and this is a single-process tool.
func nextSpecID(p *project, now time.Time) string {
	prefix := fmt.Sprintf("SPEC-%s-", now.Format("20060102"))
	seq := 0
	for _, s := range p.engine.List() {
		if strings.HasPrefix(s.ID, prefix) {
			seq++
		}
	}
	for {
		id := spec.NewID(now, seq+1)
		if _, err := p.engine.Get(id); err != nil {
			return id
		}
		seq++
	}
}
