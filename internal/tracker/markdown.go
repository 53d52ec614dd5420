package tracker

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/specfold/specfold/internal/spec"
)

// TrackingDocName is the markdown tracking document filename.
const TrackingDocName = "TRACKING.md"

var titleCaser = cases.Title(language.English)

// StageDisplay renders a stage for the tracking document ("Qa" would
// read badly, so QA keeps its casing).
func StageDisplay(s spec.Stage) string {
	if s == spec.StageQA {
		return "QA"
	}
	return titleCaser.String(string(s))
}

// RenderTrackingDoc produces the markdown summary table for all
// tracked specs. The document is regenerated wholesale on every status
// update; it is a projection of the tracker database, never the source
// of truth.
func RenderTrackingDoc(specs []*spec.Spec) string {
	var b strings.Builder
	b.WriteString("# Spec Tracking\n\n")

	if len(specs) == 0 {
		b.WriteString("No specs tracked yet.\n")
		return b.String()
	}

	b.WriteString("| ID | Name | Stage | Requirements | Updated |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, sp := range specs {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
			sp.ID,
			sp.Name,
			StageDisplay(sp.Stage),
			len(sp.Requirements),
			sp.UpdatedAt.Format("2006-01-02"),
		)
	}
	return b.String()
}
