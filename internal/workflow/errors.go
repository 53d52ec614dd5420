package workflow

import (
	"errors"

	"github.com/specfold/specfold/internal/spec"
)

// TransitionError reports a refused stage transition or create.
//
// Message is the complete human-readable text ("Cannot move to TEST:
// No requirements defined"); Error returns it verbatim so CLI layers
// can print it without reformatting. Code carries the E1xx/E2xx
// taxonomy for JSON output.
type TransitionError struct {
	Code    string
	SpecID  string
	From    spec.Stage
	To      spec.Stage
	Message string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a spec-not-found failure, so the
// CLI can print a contextual tip instead of a bare message.
func IsNotFound(err error) bool {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code == spec.ErrSpecNotFound
	}
	return false
}
