// Package workflow implements the in-memory state machine that gates
// spec stage transitions.
//
// Stages form a strict linear order:
//
//	spec → test → code → qa → complete → archived
//
// Every forward move has a precondition (the stage gate); transitions
// are synchronous and mutate only the in-memory Spec. Persisting the
// result to the tracker is the caller's responsibility.
package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specfold/specfold/internal/qa"
	"github.com/specfold/specfold/internal/spec"
)

// predecessor maps each stage to the stage a spec must currently be in
// before it may move there.
var predecessor = map[spec.Stage]spec.Stage{
	spec.StageTest:     spec.StageSpec,
	spec.StageCode:     spec.StageTest,
	spec.StageQA:       spec.StageCode,
	spec.StageComplete: spec.StageQA,
	spec.StageArchived: spec.StageComplete,
}

// Engine holds the registered specs and enforces transition rules.
// Single-process, single-goroutine use: no internal locking.
type Engine struct {
	clock Clock
	specs map[string]*spec.Spec
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects a clock. Tests use a deterministic one.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock: SystemClock{},
		specs: make(map[string]*spec.Spec),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateSpec registers a new spec in the spec stage.
//
// The ID must match SPEC-YYYYMMDD-NNN and must not already be
// registered: a duplicate ID is an error, never a silent overwrite.
// This is the only create-time invariant.
func (e *Engine) CreateSpec(id, name, description, author, project string) (*spec.Spec, error) {
	if err := spec.ValidateID(id); err != nil {
		return nil, err
	}
	if _, exists := e.specs[id]; exists {
		return nil, &TransitionError{
			Code:    spec.ErrDuplicateSpecID,
			SpecID:  id,
			Message: fmt.Sprintf("Spec %s already exists", id),
		}
	}

	now := e.clock.Now()
	s := &spec.Spec{
		ID:          id,
		Name:        name,
		Description: description,
		Stage:       spec.StageSpec,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    map[string]string{},
	}
	if author != "" {
		s.Metadata["author"] = author
	}
	if project != "" {
		s.Metadata["project"] = project
	}
	e.specs[id] = s
	return s, nil
}

// Load hydrates the engine with existing specs (from the tracker).
// Duplicate IDs are rejected with the same guard as CreateSpec.
func (e *Engine) Load(specs []*spec.Spec) error {
	for _, s := range specs {
		if _, exists := e.specs[s.ID]; exists {
			return &TransitionError{
				Code:    spec.ErrDuplicateSpecID,
				SpecID:  s.ID,
				Message: fmt.Sprintf("Spec %s already exists", s.ID),
			}
		}
		e.specs[s.ID] = s
	}
	return nil
}

// Get returns the spec with the given ID.
func (e *Engine) Get(id string) (*spec.Spec, error) {
	s, ok := e.specs[id]
	if !ok {
		return nil, &TransitionError{
			Code:    spec.ErrSpecNotFound,
			SpecID:  id,
			Message: fmt.Sprintf("Spec %s not found", id),
		}
	}
	return s, nil
}

// List returns all registered specs ordered by ID.
func (e *Engine) List() []*spec.Spec {
	out := make([]*spec.Spec, 0, len(e.specs))
	for _, s := range e.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MoveToTest transitions spec → test. Gate: at least one requirement.
func (e *Engine) MoveToTest(id string) error {
	s, err := e.require(id, spec.StageTest)
	if err != nil {
		return err
	}
	if len(s.Requirements) == 0 {
		return e.gateErr(s, spec.StageTest, "Cannot move to TEST: No requirements defined")
	}
	e.advance(s, spec.StageTest)
	return nil
}

// MoveToCode transitions test → code. Gate: at least one test file.
func (e *Engine) MoveToCode(id string) error {
	s, err := e.require(id, spec.StageCode)
	if err != nil {
		return err
	}
	if len(s.TestFiles) == 0 {
		return e.gateErr(s, spec.StageCode, "Cannot move to CODE: No test files generated")
	}
	e.advance(s, spec.StageCode)
	return nil
}

// MoveToQA transitions code → qa. Gate: at least one implementation file.
func (e *Engine) MoveToQA(id string) error {
	s, err := e.require(id, spec.StageQA)
	if err != nil {
		return err
	}
	if len(s.ImplementationFiles) == 0 {
		return e.gateErr(s, spec.StageQA, "Cannot move to QA: No implementation files")
	}
	e.advance(s, spec.StageQA)
	return nil
}

// MoveToComplete transitions qa → complete. Gates, each with its own
// failure message: a QA report must be supplied, its spec ID must match,
// and its recommendation must be GO.
func (e *Engine) MoveToComplete(id string, report *qa.Report) error {
	s, err := e.require(id, spec.StageComplete)
	if err != nil {
		return err
	}
	if report == nil {
		return e.gateErr(s, spec.StageComplete, "Cannot move to COMPLETE: QA report required")
	}
	if report.SpecID != s.ID {
		return e.gateErr(s, spec.StageComplete,
			fmt.Sprintf("Cannot move to COMPLETE: QA report is for %s, not %s", report.SpecID, s.ID))
	}
	if report.Recommendation != qa.RecommendationGo {
		return e.gateErr(s, spec.StageComplete,
			fmt.Sprintf("Cannot move to COMPLETE: QA recommendation is %s, not GO", report.Recommendation))
	}

	e.advance(s, spec.StageComplete)
	s.QAReport = report
	completed := s.UpdatedAt
	s.CompletedAt = &completed
	return nil
}

// Archive transitions complete → archived.
func (e *Engine) Archive(id string) error {
	s, err := e.Get(id)
	if err != nil {
		return err
	}
	if s.Stage != spec.StageComplete {
		return &TransitionError{
			Code:    spec.ErrWrongPredecessor,
			SpecID:  id,
			From:    s.Stage,
			To:      spec.StageArchived,
			Message: fmt.Sprintf("Cannot archive spec in %s stage. Must be COMPLETE.", s.Stage),
		}
	}
	e.advance(s, spec.StageArchived)
	return nil
}

// TransitionCheck is the result of a CanTransition dry run.
type TransitionCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CanTransition reports whether the spec could move to the target
// stage, without mutating anything. It mirrors the transition table
// with one intentional asymmetry: the qa → complete gate requires a QA
// report, which this predicate has no parameter for, so it reports
// valid even when the real transition would still demand one. UIs use
// this for pre-flight only.
func (e *Engine) CanTransition(id string, to spec.Stage) TransitionCheck {
	s, err := e.Get(id)
	if err != nil {
		return TransitionCheck{Valid: false, Reason: err.Error()}
	}

	required, ok := predecessor[to]
	if !ok {
		return TransitionCheck{Valid: false, Reason: fmt.Sprintf("Unknown target stage %q", to)}
	}
	if s.Stage != required {
		if to == spec.StageArchived {
			return TransitionCheck{Valid: false,
				Reason: fmt.Sprintf("Cannot archive spec in %s stage. Must be COMPLETE.", s.Stage)}
		}
		return TransitionCheck{Valid: false, Reason: wrongStageMessage(s.Stage, to)}
	}

	switch to {
	case spec.StageTest:
		if len(s.Requirements) == 0 {
			return TransitionCheck{Valid: false, Reason: "Cannot move to TEST: No requirements defined"}
		}
	case spec.StageCode:
		if len(s.TestFiles) == 0 {
			return TransitionCheck{Valid: false, Reason: "Cannot move to CODE: No test files generated"}
		}
	case spec.StageQA:
		if len(s.ImplementationFiles) == 0 {
			return TransitionCheck{Valid: false, Reason: "Cannot move to QA: No implementation files"}
		}
	}
	return TransitionCheck{Valid: true}
}

// AddTestFile records a generated test file on the spec.
func (e *Engine) AddTestFile(id, path string) error {
	return e.appendFile(id, path, func(s *spec.Spec) *[]string { return &s.TestFiles })
}

// AddImplementationFile records an implementation file on the spec.
func (e *Engine) AddImplementationFile(id, path string) error {
	return e.appendFile(id, path, func(s *spec.Spec) *[]string { return &s.ImplementationFiles })
}

// SetRequirements replaces the spec's requirement list, used after a
// delta apply re-parses the base spec document.
func (e *Engine) SetRequirements(id string, reqs []spec.Requirement) error {
	s, err := e.Get(id)
	if err != nil {
		return err
	}
	s.Requirements = reqs
	s.UpdatedAt = e.clock.Now()
	return nil
}

// require fetches the spec and checks it sits in the required
// predecessor stage for the target.
func (e *Engine) require(id string, to spec.Stage) (*spec.Spec, error) {
	s, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	if s.Stage != predecessor[to] {
		return nil, &TransitionError{
			Code:    spec.ErrWrongPredecessor,
			SpecID:  id,
			From:    s.Stage,
			To:      to,
			Message: wrongStageMessage(s.Stage, to),
		}
	}
	return s, nil
}

// advance sets the new stage and stamps UpdatedAt.
func (e *Engine) advance(s *spec.Spec, to spec.Stage) {
	s.Stage = to
	s.UpdatedAt = e.clock.Now()
}

func (e *Engine) gateErr(s *spec.Spec, to spec.Stage, message string) error {
	return &TransitionError{
		Code:    spec.ErrStageGate,
		SpecID:  s.ID,
		From:    s.Stage,
		To:      to,
		Message: message,
	}
}

func (e *Engine) appendFile(id, path string, field func(*spec.Spec) *[]string) error {
	s, err := e.Get(id)
	if err != nil {
		return err
	}
	files := field(s)
	for _, existing := range *files {
		if existing == path {
			return nil
		}
	}
	*files = append(*files, path)
	s.UpdatedAt = e.clock.Now()
	return nil
}

// wrongStageMessage formats the wrong-predecessor failure:
// "Cannot move to CODE from spec. Must be in TEST stage."
func wrongStageMessage(from, to spec.Stage) string {
	return fmt.Sprintf("Cannot move to %s from %s. Must be in %s stage.",
		strings.ToUpper(string(to)), from, strings.ToUpper(string(predecessor[to])))
}
