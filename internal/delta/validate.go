package delta

import (
	"fmt"
	"strings"
)

// Delta validation error codes (E301-E319).
const (
	ErrMissingBaseSpec  = "E301" // delta has no base spec ID
	ErrNoChanges        = "E302" // added, modified, and removed all empty
	ErrDuplicateAdd     = "E303" // same ID twice within added
	ErrDuplicateModify  = "E304" // same ID twice within modified
	ErrAddedAndModified = "E305" // ID in both added and modified
	ErrAddedAndRemoved  = "E306" // ID in both added and removed
	ErrModifiedRemoved  = "E307" // ID in both modified and removed
)

// ValidationError is a single problem found in a parsed delta.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationResult is the outcome of validating a delta.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks a parsed delta for structural problems: a missing
// base spec ID, an empty change set, and requirement IDs appearing more
// than once within or across the added/modified/removed lists.
//
// It does not cross-reference the base spec's actual requirement IDs;
// that check happens during merge, surfacing as requirement_not_found
// conflicts.
func Validate(d *Delta) ValidationResult {
	var errs []ValidationError

	if d.BaseSpecID == "" {
		errs = append(errs, ValidationError{
			Code:    ErrMissingBaseSpec,
			Field:   "base_spec_id",
			Message: "delta spec has no base spec ID",
		})
	}

	if d.ChangeCount() == 0 {
		errs = append(errs, ValidationError{
			Code:    ErrNoChanges,
			Field:   "changes",
			Message: "delta spec contains no added, modified, or removed requirements",
		})
	}

	added := idSet(d.Added, &errs, ErrDuplicateAdd, "added")
	modified := idSet(d.Modified, &errs, ErrDuplicateModify, "modified")

	for id := range added {
		if _, ok := modified[id]; ok {
			errs = append(errs, ValidationError{
				Code:    ErrAddedAndModified,
				Field:   id,
				Message: fmt.Sprintf("requirement %s appears in both ADDED and MODIFIED", id),
			})
		}
	}
	for _, id := range d.Removed {
		if _, ok := added[id]; ok {
			errs = append(errs, ValidationError{
				Code:    ErrAddedAndRemoved,
				Field:   id,
				Message: fmt.Sprintf("requirement %s appears in both ADDED and REMOVED", id),
			})
		}
		if _, ok := modified[id]; ok {
			errs = append(errs, ValidationError{
				Code:    ErrModifiedRemoved,
				Field:   id,
				Message: fmt.Sprintf("requirement %s appears in both MODIFIED and REMOVED", id),
			})
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// idSet collects the IDs of a change list, recording a validation error
// for every duplicate it encounters.
func idSet(reqs []Requirement, errs *[]ValidationError, dupCode, list string) map[string]struct{} {
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		if _, ok := seen[req.ID]; ok {
			*errs = append(*errs, ValidationError{
				Code:    dupCode,
				Field:   req.ID,
				Message: fmt.Sprintf("requirement %s appears more than once in %s", req.ID, strings.ToUpper(list)),
			})
			continue
		}
		seen[req.ID] = struct{}{}
	}
	return seen
}
