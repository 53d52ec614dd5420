package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseSpecID = "SPEC-20250211-001"

const baseSpecDoc = `# Checkout Service

**ID:** SPEC-20250211-001
**Stage:** spec

## Description

Handles checkout.

## Requirements

### FR-1

The system shall validate carts.

**Priority:** P0
`

// runCLI executes the root command with the given args and returns the
// combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// setupProjectDir creates a project root with a base spec on disk.
func setupProjectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	specsDir := filepath.Join(dir, "specs")
	require.NoError(t, os.MkdirAll(specsDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(specsDir, baseSpecID+".md"), []byte(baseSpecDoc), 0o644))
	return dir
}

func writeDelta(t *testing.T, dir, name, content string) string {
	t.Helper()
	deltasDir := filepath.Join(dir, "specs", "deltas")
	require.NoError(t, os.MkdirAll(deltasDir, 0o755))
	path := filepath.Join(deltasDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	_, err := runCLI(t, "--format", "xml", "status", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestStatus_EmptyProject(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, "status", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No specs tracked yet.")

	// The tracking doc is regenerated on every status call.
	doc, err := os.ReadFile(filepath.Join(dir, ".specfold", "TRACKING.md"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "# Spec Tracking")
}

func TestStatus_JSONEnvelope(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "status", "--dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"ok"`)
}

func TestLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, "new", "Checkout", "-d", "Handles checkout", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Created SPEC-")
	id := strings.Fields(out)[1]

	specPath := filepath.Join(dir, "specs", id+".md")
	content, err := os.ReadFile(specPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "**ID:** "+id)
	assert.Contains(t, string(content), "## Requirements")

	// The gate refuses test until the document has requirements.
	out, err = runCLI(t, "move", id, "test", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Cannot move to TEST: No requirements defined", err.Error())

	// Add a requirement block to the spec document; the loader re-syncs
	// requirements from disk on the next invocation.
	withReq := string(content) + "\n### FR-1\n\nThe system shall validate carts.\n\n**Priority:** P0\n"
	require.NoError(t, os.WriteFile(specPath, []byte(withReq), 0o644))

	out, err = runCLI(t, "move", id, "test", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Moved %s: spec → test", id))

	// Stage skipping is refused even when later gates are satisfiable.
	_, err = runCLI(t, "move", id, "qa", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot move to QA from test.")

	_, err = runCLI(t, "move", id, "code", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, "Cannot move to CODE: No test files generated", err.Error())

	_, err = runCLI(t, "attach", id, "--test", "checkout_test.go", "--dir", dir)
	require.NoError(t, err)
	_, err = runCLI(t, "move", id, "code", "--dir", dir)
	require.NoError(t, err)

	_, err = runCLI(t, "attach", id, "--impl", "checkout.go", "--dir", dir)
	require.NoError(t, err)
	_, err = runCLI(t, "move", id, "qa", "--dir", dir)
	require.NoError(t, err)

	// complete without a report is refused.
	_, err = runCLI(t, "move", id, "complete", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, "Cannot move to COMPLETE: QA report required", err.Error())

	// A NO-GO report is refused too.
	noGo := qaReportJSON(id, "NO-GO")
	noGoPath := filepath.Join(dir, "nogo.json")
	require.NoError(t, os.WriteFile(noGoPath, []byte(noGo), 0o644))
	_, err = runCLI(t, "move", id, "complete", "--qa-report", noGoPath, "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, "Cannot move to COMPLETE: QA recommendation is NO-GO, not GO", err.Error())

	goPath := filepath.Join(dir, "go.json")
	require.NoError(t, os.WriteFile(goPath, []byte(qaReportJSON(id, "GO")), 0o644))
	out, err = runCLI(t, "move", id, "complete", "--qa-report", goPath, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "qa → complete")

	out, err = runCLI(t, "archive", id, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Archived "+id)

	out, err = runCLI(t, "status", id, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Stage:        Archived")
	assert.Contains(t, out, "QA:           GO")
	assert.Contains(t, out, "spec → test")
	assert.Contains(t, out, "complete → archived")

	doc, err := os.ReadFile(filepath.Join(dir, ".specfold", "TRACKING.md"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "| "+id+" | Checkout | Archived |")
}

func TestMove_UntrackedSpec(t *testing.T) {
	_, err := runCLI(t, "move", "SPEC-20250211-404", "test", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "spec not tracked")
}

func TestAttach_RequiresFiles(t *testing.T) {
	_, err := runCLI(t, "attach", "SPEC-20250211-001", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "nothing to attach")
}

func TestDeltaValidate(t *testing.T) {
	dir := setupProjectDir(t)
	path := writeDelta(t, dir, "DELTA-SPEC-20250211-001-20250212.md", `# Delta

## ADDED Requirements

### FR-9

When a discount code is applied, the system shall recompute totals.

**Priority:** P1
`)

	out, err := runCLI(t, "delta", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid: +1 ~0 -0 change(s)")
}

func TestDeltaValidate_EmptyDelta(t *testing.T) {
	dir := setupProjectDir(t)
	path := writeDelta(t, dir, "DELTA-SPEC-20250211-001-20250212.md", "# Delta\n\nNo change sections here.\n")

	out, err := runCLI(t, "delta", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "is invalid")
}

func TestDeltaApply(t *testing.T) {
	dir := setupProjectDir(t)
	deltaPath := writeDelta(t, dir, "DELTA-SPEC-20250211-001-20250212.md", `# Delta

## ADDED Requirements

### FR-9

When a discount code is applied, the system shall recompute totals.

## REMOVED Requirements

- FR-1
`)

	out, err := runCLI(t, "delta", "apply", baseSpecID, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 1 delta(s) to "+baseSpecID+": +1 ~0 -1, 0 conflict(s)")

	merged, err := os.ReadFile(filepath.Join(dir, "specs", baseSpecID+".md"))
	require.NoError(t, err)
	assert.Contains(t, string(merged), "### FR-9")
	assert.NotContains(t, string(merged), "### FR-1")

	// Consumed deltas move to the applied directory.
	_, err = os.Stat(deltaPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "specs", "deltas", "applied", filepath.Base(deltaPath)))
	assert.NoError(t, err)
}

func TestDeltaApply_NoDeltas(t *testing.T) {
	dir := setupProjectDir(t)

	_, err := runCLI(t, "delta", "apply", baseSpecID, "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no delta files for "+baseSpecID)
}

func TestDeltaApply_DryRun(t *testing.T) {
	dir := setupProjectDir(t)
	deltaPath := writeDelta(t, dir, "DELTA-SPEC-20250211-001-20250212.md", `# Delta

## ADDED Requirements

### FR-9

When a discount code is applied, the system shall recompute totals.
`)

	out, err := runCLI(t, "delta", "apply", baseSpecID, "--dry-run", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "(dry run, nothing written)")

	merged, err := os.ReadFile(filepath.Join(dir, "specs", baseSpecID+".md"))
	require.NoError(t, err)
	assert.Equal(t, baseSpecDoc, string(merged))
	_, err = os.Stat(deltaPath)
	assert.NoError(t, err)
}

func TestDeltaApply_ConflictsNeedForce(t *testing.T) {
	dir := setupProjectDir(t)
	writeDelta(t, dir, "DELTA-SPEC-20250211-001-20250212.md", `# Delta

## MODIFIED Requirements

### FR-99

The system shall do something else entirely.
`)

	out, err := runCLI(t, "delta", "apply", baseSpecID, "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "! requirement_not_found")
	assert.Contains(t, err.Error(), "re-run with --force")

	// Nothing was written without --force.
	base, err := os.ReadFile(filepath.Join(dir, "specs", baseSpecID+".md"))
	require.NoError(t, err)
	assert.Equal(t, baseSpecDoc, string(base))

	out, err = runCLI(t, "delta", "apply", baseSpecID, "--force", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 conflict(s)")
}

func TestDeltaDiff(t *testing.T) {
	dir := setupProjectDir(t)
	writeDelta(t, dir, "DELTA-SPEC-20250211-001-20250212.md", `# Delta

## ADDED Requirements

### FR-9

When a discount code is applied, the system shall recompute totals.
`)

	out, err := runCLI(t, "delta", "diff", baseSpecID, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "+ ### FR-9")

	// Diff is a preview: the base document is untouched.
	base, err := os.ReadFile(filepath.Join(dir, "specs", baseSpecID+".md"))
	require.NoError(t, err)
	assert.Equal(t, baseSpecDoc, string(base))
}

func TestEARS(t *testing.T) {
	dir := setupProjectDir(t)

	out, err := runCLI(t, "ears", baseSpecID, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ [ubiquitous] The system shall validate carts.")
	assert.Contains(t, out, "Score: 100/100 (1 of 1 compliant)")

	_, err = runCLI(t, "ears", "SPEC-20250211-404", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEARS_FailUnder(t *testing.T) {
	dir := t.TempDir()
	specsDir := filepath.Join(dir, "specs")
	require.NoError(t, os.MkdirAll(specsDir, 0o755))
	doc := `# Vague Feature

**ID:** SPEC-20250211-002
**Stage:** spec

## Requirements

### FR-1

The system should maybe validate inputs appropriately.
`
	require.NoError(t, os.WriteFile(filepath.Join(specsDir, "SPEC-20250211-002.md"), []byte(doc), 0o644))

	out, err := runCLI(t, "ears", "SPEC-20250211-002", "--fail-under", "70", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "below --fail-under 70")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, `Ambiguous word "should" weakens the requirement`)
}

func qaReportJSON(specID, recommendation string) string {
	return fmt.Sprintf(`{
  "id": "qa-1",
  "spec_id": %q,
  "timestamp": "2025-02-12T10:30:00Z",
  "recommendation": %q,
  "coverage": 92.5,
  "test_results": [{"name": "TestCheckout", "passed": true}],
  "issues": []
}`, specID, recommendation)
}
