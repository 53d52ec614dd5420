package merge

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specfold/specfold/internal/delta"
	"github.com/specfold/specfold/internal/spec"
)

const baseContent = `# Checkout Service

**ID:** SPEC-20250211-001
**Stage:** spec

## Description

Handles checkout.

## Requirements

### FR-1
The system shall validate cart contents.

**Priority:** P0

### FR-2
The system shall compute totals.

**Priority:** P1

## Notes

Keep it simple.
`

func TestMerge_AddRoundTrip(t *testing.T) {
	d := delta.Parse(`## ADDED Requirements

### FR-9
When a discount code is applied, the system shall recompute totals.

**Priority:** P1
`, "DELTA-SPEC-20250211-001-20250301", "SPEC-20250211-001", "")

	res := Merge(baseContent, d)

	require.True(t, res.Success)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 1, res.Stats.Added)
	assert.Equal(t, 0, res.Stats.Conflicts)
	assert.Contains(t, res.Content, "When a discount code is applied, the system shall recompute totals.")

	doc := spec.ParseDocument(res.Content)
	assert.Equal(t, []string{"FR-1", "FR-2", "FR-9"}, doc.RequirementIDs())
}

func TestMerge_Golden(t *testing.T) {
	d := &delta.Delta{
		ID:         "DELTA-SPEC-20250211-001-20250301",
		BaseSpecID: "SPEC-20250211-001",
		Added: []delta.Requirement{{
			ID:        "FR-9",
			Text:      "When a discount code is applied, the system shall recompute totals.",
			Priority:  spec.PriorityP1,
			Scenarios: []string{"Given a valid code, when applied, then totals update"},
		}},
		Removed: []string{"FR-2"},
	}

	res := Merge(baseContent, d)
	require.True(t, res.Success)
	require.Empty(t, res.Conflicts)

	g := goldie.New(t)
	g.Assert(t, "merge_add_remove", []byte(res.Content))
}

func TestMerge_ModifyReplacesInPlace(t *testing.T) {
	d := &delta.Delta{
		BaseSpecID: "SPEC-20250211-001",
		Modified: []delta.Requirement{{
			ID:       "FR-2",
			Text:     "The system shall compute totals including tax.",
			Priority: spec.PriorityP0,
		}},
	}

	res := Merge(baseContent, d)
	require.True(t, res.Success)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 1, res.Stats.Modified)
	assert.Contains(t, res.Content, "The system shall compute totals including tax.")
	assert.NotContains(t, res.Content, "The system shall compute totals.\n")
	assert.Contains(t, res.Content, "**Priority:** P0")

	// Order is preserved: the modified block stays where it was.
	doc := spec.ParseDocument(res.Content)
	assert.Equal(t, []string{"FR-1", "FR-2"}, doc.RequirementIDs())
}

func TestMerge_ModifyMissingTargetIsConflict(t *testing.T) {
	d := &delta.Delta{
		BaseSpecID: "SPEC-20250211-001",
		Modified:   []delta.Requirement{{ID: "FR-77", Text: "The system shall not exist."}},
	}

	res := Merge(baseContent, d)

	require.True(t, res.Success, "conflicts must not flip Success")
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, ConflictNotFound, res.Conflicts[0].Type)
	assert.Equal(t, "FR-77", res.Conflicts[0].RequirementID)
	assert.Equal(t, 0, res.Stats.Modified)
	assert.Equal(t, 1, res.Stats.Conflicts)
	// The base content is untouched for the missing ID.
	assert.Equal(t, baseContent, res.Content)
}

func TestMerge_DuplicateAddAppendsAndRecordsConflict(t *testing.T) {
	d := &delta.Delta{
		BaseSpecID: "SPEC-20250211-001",
		Added:      []delta.Requirement{{ID: "FR-1", Text: "The system shall validate everything."}},
	}

	res := Merge(baseContent, d)

	require.True(t, res.Success)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, ConflictDuplicateAdd, res.Conflicts[0].Type)
	// Advisory conflict: the insertion still happens.
	assert.Equal(t, 1, res.Stats.Added)
	doc := spec.ParseDocument(res.Content)
	assert.Equal(t, []string{"FR-1", "FR-2", "FR-1"}, doc.RequirementIDs())
}

func TestMerge_RemoveMissingTargetIsConflict(t *testing.T) {
	d := &delta.Delta{
		BaseSpecID: "SPEC-20250211-001",
		Removed:    []string{"FR-2", "FR-42"},
	}

	res := Merge(baseContent, d)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, ConflictNotFound, res.Conflicts[0].Type)
	assert.Equal(t, "FR-42", res.Conflicts[0].RequirementID)
	assert.Equal(t, 1, res.Stats.Removed)
}

func TestMerge_NoRequirementsAnchor(t *testing.T) {
	d := &delta.Delta{
		BaseSpecID: "SPEC-20250211-001",
		Added:      []delta.Requirement{{ID: "FR-1", Text: "The system shall anchor."}},
	}

	res := Merge("# Prose only\n\nNothing to see.\n", d)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, ConflictInvalidFormat, res.Conflicts[0].Type)
	assert.Equal(t, 0, res.Stats.Added)
}

func TestStats_Add(t *testing.T) {
	total := Stats{}
	total.Add(Stats{Added: 2, Modified: 1, Conflicts: 1})
	total.Add(Stats{Removed: 3})
	assert.Equal(t, Stats{Added: 2, Modified: 1, Removed: 3, Conflicts: 1}, total)
}

func TestDiff_PreviewsWithoutMutating(t *testing.T) {
	d := &delta.Delta{
		ID:         "DELTA-SPEC-20250211-001-20250301",
		BaseSpecID: "SPEC-20250211-001",
		Added:      []delta.Requirement{{ID: "FR-9", Text: "The system shall preview."}},
		Removed:    []string{"FR-2"},
	}

	out := Diff(baseContent, d)

	assert.Contains(t, out, "+1 ~0 -1")
	assert.Contains(t, out, "+ ### FR-9")
	assert.Contains(t, out, "- ### FR-2")

	// A second diff over the same base yields the same preview.
	assert.Equal(t, out, Diff(baseContent, d))
}

func TestDiff_ReportsConflicts(t *testing.T) {
	d := &delta.Delta{
		BaseSpecID: "SPEC-20250211-001",
		Modified:   []delta.Requirement{{ID: "FR-77", Text: "The system shall not exist."}},
	}

	out := Diff(baseContent, d)
	assert.Contains(t, out, "requirement_not_found")
	assert.Contains(t, out, "FR-77")
	assert.True(t, strings.Contains(out, "(1 conflict(s))"))
}
