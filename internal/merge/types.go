// Package merge applies delta specs onto base spec markdown content.
//
// Conflicts are advisory by contract: the merge never blocks on them.
// Callers inspect the conflict list and decide whether to persist the
// merged content (interactively or with a force flag). Do not turn this
// into a blocking model; CLI flows depend on inspecting conflicts
// before committing.
package merge

import "fmt"

// ConflictType classifies a merge conflict.
type ConflictType string

const (
	// ConflictNotFound: a MODIFIED or REMOVED entry references a
	// requirement ID that does not exist in the base content.
	ConflictNotFound ConflictType = "requirement_not_found"

	// ConflictDuplicateAdd: an ADDED entry's ID already exists in the
	// base content. The add is still performed (append), the conflict
	// is recorded for the caller.
	ConflictDuplicateAdd ConflictType = "duplicate_add"

	// ConflictInvalidFormat: a delta entry or the base document is not
	// shaped in a way the merge can act on.
	ConflictInvalidFormat ConflictType = "invalid_format"
)

// Conflict is a detected inconsistency during a merge. Conflicts are
// reported, never thrown: they do not abort the merge.
type Conflict struct {
	Type          ConflictType `json:"type"`
	RequirementID string       `json:"requirement_id,omitempty"`
	Message       string       `json:"message"`
}

func (c Conflict) String() string {
	if c.RequirementID != "" {
		return fmt.Sprintf("%s (%s): %s", c.Type, c.RequirementID, c.Message)
	}
	return fmt.Sprintf("%s: %s", c.Type, c.Message)
}

// Stats counts the changes applied by one merge. Callers applying a
// sequence of deltas sum stats across merges with Add.
type Stats struct {
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Removed   int `json:"removed"`
	Conflicts int `json:"conflicts"`
}

// Add accumulates another merge's stats into s.
func (s *Stats) Add(other Stats) {
	s.Added += other.Added
	s.Modified += other.Modified
	s.Removed += other.Removed
	s.Conflicts += other.Conflicts
}

// Result is the outcome of applying one delta to base content.
//
// Success reports whether the merge completed, NOT whether it was
// conflict-free: conflicts are carried separately and never flip
// Success on their own.
type Result struct {
	Success   bool       `json:"success"`
	Content   string     `json:"content"`
	Conflicts []Conflict `json:"conflicts"`
	Stats     Stats      `json:"stats"`
}
