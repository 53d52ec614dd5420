package delta

import (
	"regexp"
	"strings"
	"time"

	"github.com/specfold/specfold/internal/spec"
)

// Section markers and entry shapes recognized by the parser.
var (
	addedSectionRe    = regexp.MustCompile(`(?i)^##\s+ADDED\s+Requirements`)
	modifiedSectionRe = regexp.MustCompile(`(?i)^##\s+MODIFIED\s+Requirements`)
	removedSectionRe  = regexp.MustCompile(`(?i)^##\s+REMOVED\s+Requirements`)
	otherSectionRe    = regexp.MustCompile(`^##\s+`)

	headingEntryRe = regexp.MustCompile(`^###\s+([A-Z][A-Z0-9-]+)`)
	boldEntryRe    = regexp.MustCompile(`^\*\*([A-Z][A-Z0-9-]+):(?:\*\*)?\s*(.*)$`)
	removedLineRe  = regexp.MustCompile(`^[-*]\s+([A-Z][A-Z0-9-]+)`)
	priorityRe     = regexp.MustCompile(`^\*\*Priority:\*\*\s*(P[012])`)
	descriptionRe  = regexp.MustCompile(`^\*\*Description:\*\*\s*(.+)$`)
	wasRe          = regexp.MustCompile(`\s*←\s*\(was\s+(.+?)\)\s*`)
	listLineRe     = regexp.MustCompile(`^[-*]\s+(.+)$`)
)

// DefaultDescription is used when a delta document carries no
// **Description:** line.
const DefaultDescription = "Delta spec change"

type section int

const (
	sectionNone section = iota
	sectionAdded
	sectionModified
	sectionRemoved
)

// Parse converts delta spec markdown into a Delta.
//
// Parsing is deliberately lenient and never fails: sections that do not
// match the expected shapes contribute nothing, and a malformed
// document yields a Delta with empty change lists, which Validate then
// rejects with a zero-changes error. Error detection belongs to
// Validate, not here.
func Parse(content, deltaID, baseSpecID, author string) *Delta {
	d := &Delta{
		ID:          deltaID,
		BaseSpecID:  baseSpecID,
		Description: DefaultDescription,
		CreatedAt:   time.Now().UTC(),
		Author:      author,
	}

	current := sectionNone
	var pending *Requirement

	flush := func() {
		if pending == nil {
			return
		}
		pending.Text = strings.TrimSpace(pending.Text)
		switch current {
		case sectionAdded:
			d.Added = append(d.Added, *pending)
		case sectionModified:
			d.Modified = append(d.Modified, *pending)
		}
		pending = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)

		// Section boundaries. Entering a recognized section flushes the
		// requirement being accumulated; any other ## heading resets to
		// no section, so content outside recognized sections is ignored.
		switch {
		case addedSectionRe.MatchString(trimmed):
			flush()
			current = sectionAdded
			continue
		case modifiedSectionRe.MatchString(trimmed):
			flush()
			current = sectionModified
			continue
		case removedSectionRe.MatchString(trimmed):
			flush()
			current = sectionRemoved
			continue
		case otherSectionRe.MatchString(trimmed):
			flush()
			current = sectionNone
			continue
		}

		if m := descriptionRe.FindStringSubmatch(trimmed); m != nil && d.Description == DefaultDescription {
			d.Description = strings.TrimSpace(m[1])
			continue
		}

		switch current {
		case sectionRemoved:
			if m := removedLineRe.FindStringSubmatch(trimmed); m != nil {
				d.Removed = append(d.Removed, m[1])
			}
		case sectionAdded, sectionModified:
			if m := headingEntryRe.FindStringSubmatch(trimmed); m != nil {
				flush()
				pending = &Requirement{ID: m[1]}
				continue
			}
			if m := boldEntryRe.FindStringSubmatch(trimmed); m != nil {
				flush()
				pending = &Requirement{ID: m[1], Text: strings.TrimSpace(m[2])}
				continue
			}
			if pending == nil {
				continue
			}
			accumulate(pending, trimmed, current)
		}
	}
	flush()

	return d
}

// accumulate folds one body line into the requirement being built.
func accumulate(req *Requirement, line string, current section) {
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	if m := priorityRe.FindStringSubmatch(line); m != nil {
		req.Priority = spec.Priority(m[1])
		return
	}
	if m := wasRe.FindStringSubmatch(line); m != nil && current == sectionModified {
		req.OldText = strings.TrimSpace(m[1])
		residual := strings.TrimSpace(wasRe.ReplaceAllString(line, " "))
		appendText(req, residual)
		return
	}
	if m := listLineRe.FindStringSubmatch(line); m != nil {
		req.Scenarios = append(req.Scenarios, strings.TrimSpace(m[1]))
		return
	}
	appendText(req, line)
}

func appendText(req *Requirement, text string) {
	if text == "" {
		return
	}
	if req.Text == "" {
		req.Text = text
		return
	}
	req.Text += " " + text
}
