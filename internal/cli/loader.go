package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specfold/specfold/internal/config"
	"github.com/specfold/specfold/internal/spec"
	"github.com/specfold/specfold/internal/tracker"
	"github.com/specfold/specfold/internal/workflow"
)

// LoadError represents an error that occurred while resolving project
// files. Carries an E2xx code so JSON output stays structured.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// project bundles everything a command needs: config, tracker store,
// and a workflow engine hydrated from the tracker. Requirements are
// re-synced from the base spec files on load so stage gates see the
// documents as they are on disk, not as they were last persisted.
type project struct {
	root   string
	cfg    *config.Config
	store  *tracker.Store
	engine *workflow.Engine
}

// openProject loads config, opens the tracker, and hydrates the engine.
func openProject(ctx context.Context, opts *RootOptions) (*project, error) {
	cfg, err := config.Load(opts.Dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	store, err := tracker.Open(filepath.Join(opts.Dir, cfg.TrackerDB))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open tracker", err)
	}

	specs, err := store.ListSpecs(ctx)
	if err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "load specs from tracker", err)
	}

	engine := workflow.New()
	if err := engine.Load(specs); err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "hydrate workflow engine", err)
	}

	p := &project{root: opts.Dir, cfg: cfg, store: store, engine: engine}
	for _, sp := range specs {
		if content, _, err := p.readSpecFile(sp.ID); err == nil {
			if parsed, perr := spec.ParseSpec(content); perr == nil {
				engine.SetRequirements(sp.ID, parsed.Requirements)
			}
		}
	}
	return p, nil
}

func (p *project) Close() {
	p.store.Close()
}

// specPath returns the base spec markdown path for an ID.
func (p *project) specPath(id string) string {
	return filepath.Join(p.root, p.cfg.SpecsDir, id+".md")
}

// readSpecFile loads the base spec markdown for an ID.
func (p *project) readSpecFile(id string) (content, path string, err error) {
	path = p.specPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", path, &LoadError{
				Code:    spec.ErrSpecFileNotFound,
				Message: fmt.Sprintf("spec file %s not found (is %q the right project root?)", path, p.root),
			}
		}
		return "", path, fmt.Errorf("read spec file %s: %w", path, err)
	}
	return string(data), path, nil
}

// saveSpec persists engine state for a spec back to the tracker.
func (p *project) saveSpec(ctx context.Context, id string) error {
	sp, err := p.engine.Get(id)
	if err != nil {
		return err
	}
	return p.store.SaveSpec(ctx, sp)
}

// writeTrackingDoc regenerates the markdown tracking document beside
// the tracker database.
func (p *project) writeTrackingDoc(ctx context.Context) error {
	specs, err := p.store.ListSpecs(ctx)
	if err != nil {
		return err
	}
	dir := filepath.Join(p.root, filepath.Dir(p.cfg.TrackerDB))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	doc := tracker.RenderTrackingDoc(specs)
	return os.WriteFile(filepath.Join(dir, tracker.TrackingDocName), []byte(doc), 0o644)
}
