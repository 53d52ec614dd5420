package qa

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReport = `{
  "id": "qa-2025-02-12-01",
  "spec_id": "SPEC-20250211-001",
  "timestamp": "2025-02-12T10:30:00Z",
  "recommendation": "GO",
  "coverage": 92.5,
  "test_results": [
    {"name": "TestCheckout", "passed": true},
    {"name": "TestRefund", "passed": false, "message": "flaky on CI"}
  ],
  "issues": ["refund path needs a retry"],
  "notes": "ship it"
}`

func TestParse_ValidReport(t *testing.T) {
	report, err := Parse("report.json", []byte(validReport))
	require.NoError(t, err)

	assert.Equal(t, "qa-2025-02-12-01", report.ID)
	assert.Equal(t, "SPEC-20250211-001", report.SpecID)
	assert.Equal(t, time.Date(2025, 2, 12, 10, 30, 0, 0, time.UTC), report.Timestamp)
	assert.Equal(t, RecommendationGo, report.Recommendation)
	assert.Equal(t, 92.5, report.Coverage)
	require.Len(t, report.TestResults, 2)
	assert.Equal(t, "flaky on CI", report.TestResults[1].Message)
	assert.Equal(t, []string{"refund path needs a retry"}, report.Issues)
	assert.Equal(t, "ship it", report.Notes)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse("report.json", []byte("{not json"))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, ErrReportJSON, schemaErr.Code)
	assert.Equal(t, "report.json", schemaErr.Path)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{
			name: "empty id",
			json: `{"id":"","spec_id":"SPEC-20250211-001","timestamp":"2025-02-12T10:30:00Z","recommendation":"GO","coverage":50,"test_results":[],"issues":[]}`,
		},
		{
			name: "malformed spec id",
			json: `{"id":"qa-1","spec_id":"FEAT-1","timestamp":"2025-02-12T10:30:00Z","recommendation":"GO","coverage":50,"test_results":[],"issues":[]}`,
		},
		{
			name: "unknown recommendation",
			json: `{"id":"qa-1","spec_id":"SPEC-20250211-001","timestamp":"2025-02-12T10:30:00Z","recommendation":"MAYBE","coverage":50,"test_results":[],"issues":[]}`,
		},
		{
			name: "coverage out of range",
			json: `{"id":"qa-1","spec_id":"SPEC-20250211-001","timestamp":"2025-02-12T10:30:00Z","recommendation":"GO","coverage":120,"test_results":[],"issues":[]}`,
		},
		{
			name: "missing test_results",
			json: `{"id":"qa-1","spec_id":"SPEC-20250211-001","timestamp":"2025-02-12T10:30:00Z","recommendation":"GO","coverage":50,"issues":[]}`,
		},
		{
			name: "test result without name",
			json: `{"id":"qa-1","spec_id":"SPEC-20250211-001","timestamp":"2025-02-12T10:30:00Z","recommendation":"GO","coverage":50,"test_results":[{"passed":true}],"issues":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("report.json", []byte(tt.json))

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, ErrReportSchema, schemaErr.Code)
			assert.NotEmpty(t, schemaErr.Message)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(validReport), 0o644))

	report, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, RecommendationGo, report.Recommendation)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, ErrReportRead, schemaErr.Code)
}

func TestNew(t *testing.T) {
	report := New("SPEC-20250211-001", RecommendationNoGo, 40)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "SPEC-20250211-001", report.SpecID)
	assert.Equal(t, RecommendationNoGo, report.Recommendation)
	assert.False(t, report.Timestamp.IsZero())
}
