package delta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_SortsLexicographically(t *testing.T) {
	dir := t.TempDir()
	// Touched out of order on purpose: discovery must not depend on
	// filesystem ordering.
	names := []string{
		"DELTA-SPEC-20250211-001-20250315.md",
		"DELTA-SPEC-20250211-001-20250301.md",
		"DELTA-SPEC-20250211-001-20250228.md",
		"DELTA-SPEC-20250211-002-20250301.md", // different base spec
		"notes.md",                            // not a delta
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	paths, err := Discover(dir, "SPEC-20250211-001")
	require.NoError(t, err)

	require.Len(t, paths, 3)
	assert.Equal(t, "DELTA-SPEC-20250211-001-20250228.md", filepath.Base(paths[0]))
	assert.Equal(t, "DELTA-SPEC-20250211-001-20250301.md", filepath.Base(paths[1]))
	assert.Equal(t, "DELTA-SPEC-20250211-001-20250315.md", filepath.Base(paths[2]))
}

func TestDiscover_MissingDirIsEmpty(t *testing.T) {
	paths, err := Discover(filepath.Join(t.TempDir(), "nope"), "SPEC-20250211-001")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestFilenameRoundTrip(t *testing.T) {
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	name := Filename("SPEC-20250211-001", date)
	assert.Equal(t, "DELTA-SPEC-20250211-001-20250301.md", name)

	base, parsed, ok := ParseFilename(name)
	require.True(t, ok)
	assert.Equal(t, "SPEC-20250211-001", base)
	assert.Equal(t, date, parsed)
}

func TestParseFilename_Rejects(t *testing.T) {
	for _, name := range []string{
		"SPEC-20250211-001.md",
		"DELTA-SPEC-20250211-001.md",
		"DELTA-FOO-20250301.md",
		"DELTA-SPEC-20250211-001-20250301.txt",
	} {
		_, _, ok := ParseFilename(name)
		assert.False(t, ok, "expected %s to be rejected", name)
	}
}
