package spec

import (
	"fmt"
	"regexp"
	"time"
)

// IDPattern is the required spec ID format: SPEC-YYYYMMDD-NNN.
const IDPattern = `^SPEC-\d{8}-\d{3}$`

var idRegexp = regexp.MustCompile(IDPattern)

// InvalidIDError reports a spec ID that does not match IDPattern.
type InvalidIDError struct {
	ID string
}

// Error implements the error interface.
func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("[%s] invalid spec ID %q: must match %s (e.g. SPEC-20250211-001)",
		ErrInvalidSpecID, e.ID, IDPattern)
}

// ValidateID checks that id matches the SPEC-YYYYMMDD-NNN format.
func ValidateID(id string) error {
	if !idRegexp.MatchString(id) {
		return &InvalidIDError{ID: id}
	}
	return nil
}

// NewID formats a spec ID for the given date and sequence number.
// seq is 1-based and rendered as a zero-padded three-digit suffix.
func NewID(t time.Time, seq int) string {
	return fmt.Sprintf("SPEC-%s-%03d", t.Format("20060102"), seq)
}
