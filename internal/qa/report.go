// Package qa loads and validates QA reports.
//
// Reports arrive as JSON files produced outside this tool. Before a
// report may gate a stage transition it is validated against an
// embedded CUE schema, so malformed reports fail loudly at load time
// rather than deep inside a workflow call.
package qa

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/google/uuid"
)

//go:embed schema.cue
var schemaCUE string

// Recommendation values allowed in a QA report.
const (
	RecommendationGo   = "GO"
	RecommendationNoGo = "NO-GO"
)

// QA report validation error codes (E401-E419).
const (
	ErrReportRead   = "E401" // file unreadable
	ErrReportJSON   = "E402" // not valid JSON
	ErrReportSchema = "E403" // JSON does not satisfy the report schema
)

// TestResult is one test outcome recorded in a QA report.
type TestResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// Report is a QA sign-off for a spec. A GO recommendation with a
// matching spec ID is required for the qa → complete transition.
type Report struct {
	ID             string       `json:"id"`
	SpecID         string       `json:"spec_id"`
	Timestamp      time.Time    `json:"timestamp"`
	Recommendation string       `json:"recommendation"`
	Coverage       float64      `json:"coverage"`
	TestResults    []TestResult `json:"test_results"`
	Issues         []string     `json:"issues"`
	Notes          string       `json:"notes,omitempty"`
}

// SchemaError reports a QA report that failed schema validation.
type SchemaError struct {
	Path    string
	Code    string
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// New creates a report for a spec with a fresh time-sortable ID.
func New(specID, recommendation string, coverage float64) *Report {
	return &Report{
		ID:             uuid.Must(uuid.NewV7()).String(),
		SpecID:         specID,
		Timestamp:      time.Now().UTC(),
		Recommendation: recommendation,
		Coverage:       coverage,
	}
}

// Load reads a QA report JSON file and validates it against the schema.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaError{Path: path, Code: ErrReportRead, Message: err.Error()}
	}
	return Parse(path, data)
}

// Parse validates raw JSON against the report schema and decodes it.
// path is used only for error messages.
func Parse(path string, data []byte) (*Report, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &SchemaError{Path: path, Code: ErrReportJSON, Message: err.Error()}
	}

	if err := validateSchema(path, raw); err != nil {
		return nil, err
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, &SchemaError{Path: path, Code: ErrReportJSON, Message: err.Error()}
	}
	return &report, nil
}

// validateSchema unifies the decoded report with the embedded CUE
// schema and returns the first violation with its field path.
func validateSchema(path string, raw map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile qa schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Report"))
	if !def.Exists() {
		return fmt.Errorf("qa schema missing #Report definition")
	}

	unified := def.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		msg := cueerrors.Details(err, nil)
		return &SchemaError{Path: path, Code: ErrReportSchema, Message: msg}
	}
	return nil
}
