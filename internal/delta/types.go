// Package delta parses and validates delta spec documents: incremental
// change documents describing ADDED, MODIFIED, and REMOVED requirements
// against a base spec.
package delta

import (
	"time"

	"github.com/specfold/specfold/internal/spec"
)

// Requirement is one requirement entry parsed out of a delta document.
// OldText is populated only for MODIFIED entries carrying a "(was ...)"
// annotation.
type Requirement struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Priority  spec.Priority `json:"priority,omitempty"`
	Scenarios []string      `json:"scenarios,omitempty"`
	OldText   string        `json:"old_text,omitempty"`
}

// Delta is a parsed delta spec document. It is immutable after parsing:
// the parser produces it once per markdown file and nothing mutates it
// afterwards.
//
// Invariant (checked by Validate, not enforced by construction): a
// requirement ID must not appear in more than one of Added, Modified,
// Removed.
type Delta struct {
	ID          string        `json:"id"`
	BaseSpecID  string        `json:"base_spec_id"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	Author      string        `json:"author"`
	Added       []Requirement `json:"added"`
	Modified    []Requirement `json:"modified"`
	Removed     []string      `json:"removed"`
}

// ChangeCount returns the total number of change entries.
func (d *Delta) ChangeCount() int {
	return len(d.Added) + len(d.Modified) + len(d.Removed)
}
