package delta

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Delta filename convention: DELTA-<baseSpecId>-<YYYYMMDD>.md.
var filenameRe = regexp.MustCompile(`^DELTA-(SPEC-\d{8}-\d{3})-(\d{8})(?:[^.]*)?\.md$`)

// Filename builds the conventional delta filename for a base spec and date.
func Filename(baseSpecID string, date time.Time) string {
	return fmt.Sprintf("DELTA-%s-%s.md", baseSpecID, date.Format("20060102"))
}

// ParseFilename extracts the base spec ID and date from a delta
// filename. Returns ok=false when the name does not follow the
// convention.
func ParseFilename(name string) (baseSpecID string, date time.Time, ok bool) {
	m := filenameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", time.Time{}, false
	}
	date, err := time.Parse("20060102", m[2])
	if err != nil {
		return "", time.Time{}, false
	}
	return m[1], date, true
}

// Discover lists delta files for a base spec in deltasDir.
//
// Files are matched by the DELTA-<baseSpecId>-*.md prefix pattern and
// returned sorted lexicographically. With the YYYYMMDD date suffix
// convention, lexicographic order is chronological order, which makes
// multi-delta merges reproducible regardless of filesystem ordering.
func Discover(deltasDir, baseSpecID string) ([]string, error) {
	if _, err := os.Stat(deltasDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read deltas directory: %w", err)
	}

	pattern := fmt.Sprintf("DELTA-%s-*.md", baseSpecID)
	matches, err := doublestar.Glob(os.DirFS(deltasDir), pattern)
	if err != nil {
		return nil, fmt.Errorf("glob deltas for %s: %w", baseSpecID, err)
	}

	sort.Strings(matches)
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(deltasDir, m)
	}
	return paths, nil
}
