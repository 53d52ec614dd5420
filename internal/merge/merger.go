package merge

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/specfold/specfold/internal/delta"
	"github.com/specfold/specfold/internal/spec"
)

// Merge applies one delta to base spec markdown and returns the merged
// content, the conflicts encountered, and change counts.
//
// ADDED entries append a requirement block. An ID that already exists
// in the base records a duplicate_add conflict but the insertion is
// still performed. MODIFIED entries replace the text of the existing
// block in place; a missing target records requirement_not_found and
// the edit is skipped. REMOVED IDs delete the block, or record
// requirement_not_found. The base content is never mutated; a new
// rendering is returned.
func Merge(baseContent string, d *delta.Delta) Result {
	doc := spec.ParseDocument(baseContent)

	var conflicts []Conflict
	var stats Stats

	for _, entry := range d.Added {
		if entry.ID == "" {
			conflicts = append(conflicts, Conflict{
				Type:    ConflictInvalidFormat,
				Message: "ADDED entry has no requirement ID",
			})
			continue
		}
		if doc.Find(entry.ID) != nil {
			conflicts = append(conflicts, Conflict{
				Type:          ConflictDuplicateAdd,
				RequirementID: entry.ID,
				Message:       fmt.Sprintf("requirement %s already exists in base spec", entry.ID),
			})
		}
		if !doc.Append(spec.NewBlock(toRequirement(entry))) {
			conflicts = append(conflicts, Conflict{
				Type:          ConflictInvalidFormat,
				RequirementID: entry.ID,
				Message:       "base spec has no requirements section to add into",
			})
			continue
		}
		stats.Added++
	}

	for _, entry := range d.Modified {
		if entry.ID == "" {
			conflicts = append(conflicts, Conflict{
				Type:    ConflictInvalidFormat,
				Message: "MODIFIED entry has no requirement ID",
			})
			continue
		}
		block := doc.Find(entry.ID)
		if block == nil {
			conflicts = append(conflicts, Conflict{
				Type:          ConflictNotFound,
				RequirementID: entry.ID,
				Message:       fmt.Sprintf("requirement %s not found in base spec", entry.ID),
			})
			continue
		}

		req := block.Requirement()
		req.Text = entry.Text
		if entry.Priority.Valid() {
			req.Priority = entry.Priority
		}
		if len(entry.Scenarios) > 0 {
			req.Scenarios = toScenarios(entry.ID, entry.Scenarios)
		}
		doc.Replace(entry.ID, spec.NewBlock(req))
		stats.Modified++
	}

	for _, id := range d.Removed {
		if !doc.Remove(id) {
			conflicts = append(conflicts, Conflict{
				Type:          ConflictNotFound,
				RequirementID: id,
				Message:       fmt.Sprintf("requirement %s not found in base spec", id),
			})
			continue
		}
		stats.Removed++
	}

	stats.Conflicts = len(conflicts)
	return Result{
		Success:   true,
		Content:   doc.Render(),
		Conflicts: conflicts,
		Stats:     stats,
	}
}

// Diff returns a human-readable line diff between the base content and
// the result of merging the delta, without mutating anything. The
// preview shows only changed lines, prefixed with + and -.
func Diff(baseContent string, d *delta.Delta) string {
	res := Merge(baseContent, d)

	dmp := diffmatchpatch.New()
	a, b, lineIndex := dmp.DiffLinesToChars(baseContent, res.Content)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineIndex)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Delta %s onto %s: +%d ~%d -%d",
		d.ID, d.BaseSpecID, res.Stats.Added, res.Stats.Modified, res.Stats.Removed)
	if res.Stats.Conflicts > 0 {
		fmt.Fprintf(&sb, " (%d conflict(s))", res.Stats.Conflicts)
	}
	sb.WriteString("\n")

	for _, conflict := range res.Conflicts {
		fmt.Fprintf(&sb, "! %s\n", conflict)
	}

	for _, df := range diffs {
		var prefix string
		switch df.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(df.Text, "\n"), "\n") {
			sb.WriteString(prefix + line + "\n")
		}
	}
	return sb.String()
}

// toRequirement converts a delta entry into the spec requirement model.
func toRequirement(entry delta.Requirement) spec.Requirement {
	priority := entry.Priority
	if !priority.Valid() {
		priority = spec.PriorityP1
	}
	return spec.Requirement{
		ID:        entry.ID,
		Text:      entry.Text,
		Priority:  priority,
		Scenarios: toScenarios(entry.ID, entry.Scenarios),
	}
}

func toScenarios(reqID string, raw []string) []spec.Scenario {
	if len(raw) == 0 {
		return nil
	}
	scenarios := make([]spec.Scenario, 0, len(raw))
	for i, line := range raw {
		scenarios = append(scenarios, spec.ParseScenario(fmt.Sprintf("%s-S%d", reqID, i+1), line))
	}
	return scenarios
}
