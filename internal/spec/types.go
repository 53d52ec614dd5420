// Package spec defines the core data model for tracked specs and the
// markdown document model used to read and rewrite base spec files.
package spec

import (
	"time"

	"github.com/specfold/specfold/internal/qa"
)

// Stage is a lifecycle stage of a spec.
//
// Stages form a strict linear order with no cycles and no skipping:
//
//	spec → test → code → qa → complete → archived
//
// Transitions between stages are gated by the workflow engine.
type Stage string

const (
	StageSpec     Stage = "spec"
	StageTest     Stage = "test"
	StageCode     Stage = "code"
	StageQA       Stage = "qa"
	StageComplete Stage = "complete"
	StageArchived Stage = "archived"
)

// Stages lists all stages in lifecycle order.
var Stages = []Stage{StageSpec, StageTest, StageCode, StageQA, StageComplete, StageArchived}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// Priority is a requirement priority level.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
)

// Valid reports whether p is one of P0, P1, P2.
func (p Priority) Valid() bool {
	return p == PriorityP0 || p == PriorityP1 || p == PriorityP2
}

// Scenario is a Given/When/Then acceptance scenario owned by a requirement.
// Scenarios are pure values with no independent lifecycle.
type Scenario struct {
	ID    string `json:"id"`
	Given string `json:"given"`
	When  string `json:"when"`
	Then  string `json:"then"`
}

// Requirement is a single requirement belonging to exactly one spec.
// ID must be unique within the owning spec's requirement list.
type Requirement struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Priority  Priority   `json:"priority"`
	Scenarios []Scenario `json:"scenarios,omitempty"`
}

// Spec is the central aggregate: a tracked unit of work moving through
// the stage lifecycle.
//
// ID is globally unique and immutable once created (format
// SPEC-YYYYMMDD-NNN). Stage is the only field whose legal transitions
// are constrained; see the workflow package. Specs are never deleted,
// only moved to the archived stage.
type Spec struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	Stage               Stage             `json:"stage"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
	Requirements        []Requirement     `json:"requirements"`
	TestFiles           []string          `json:"test_files"`
	ImplementationFiles []string          `json:"implementation_files"`
	QAReport            *qa.Report        `json:"qa_report,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// FindRequirement returns the requirement with the given ID, or nil.
func (s *Spec) FindRequirement(id string) *Requirement {
	for i := range s.Requirements {
		if s.Requirements[i].ID == id {
			return &s.Requirements[i]
		}
	}
	return nil
}
