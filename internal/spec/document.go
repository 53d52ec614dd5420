package spec

import (
	"fmt"
	"regexp"
	"strings"
)

// Base spec markdown structure:
//
//	# <Name>
//
//	**ID:** SPEC-20250211-001
//	**Stage:** spec
//
//	## Description
//	...
//
//	## Requirements
//
//	### FR-1
//	The system shall ...
//
//	**Priority:** P1
//
//	**Scenarios:**
//	- Given ..., when ..., then ...
//
// Requirement blocks start at a "### <ID>" heading and run to the next
// heading at level two or three. Everything outside requirement blocks
// is preserved verbatim so the document round-trips exactly.

var (
	reqHeadingRe     = regexp.MustCompile(`^###\s+([A-Z][A-Z0-9-]+)\s*$`)
	sectionHeadingRe = regexp.MustCompile(`^##\s+`)
	requirementsRe   = regexp.MustCompile(`(?i)^##\s+requirements\s*$`)
	headerFieldRe    = regexp.MustCompile(`^\*\*([A-Za-z]+):\*\*\s*(.*)$`)
	priorityLineRe   = regexp.MustCompile(`^\*\*Priority:\*\*\s*(P[012])\s*$`)
	listLineRe       = regexp.MustCompile(`^[-*]\s+(.*)$`)
	titleRe          = regexp.MustCompile(`^#\s+(.*)$`)
)

// Block is a single requirement block in a base spec document.
type Block struct {
	ID    string
	Lines []string // body lines, heading excluded
}

// segment is either a run of raw lines or a requirement block.
type segment struct {
	raw   []string
	block *Block
}

// Document is a parsed base spec markdown file. It supports
// ID-addressed lookup, replacement, and removal of requirement blocks
// while leaving every other line untouched.
type Document struct {
	segments []segment
}

// ParseDocument parses base spec markdown into a Document.
// Parsing never fails: content with no requirement blocks yields a
// document that renders back to the input unchanged.
func ParseDocument(content string) *Document {
	lines := splitLines(content)
	doc := &Document{}

	var raw []string
	var block *Block

	flushRaw := func() {
		if len(raw) > 0 {
			doc.segments = append(doc.segments, segment{raw: raw})
			raw = nil
		}
	}
	flushBlock := func() {
		if block != nil {
			doc.segments = append(doc.segments, segment{block: block})
			block = nil
		}
	}

	for _, line := range lines {
		if m := reqHeadingRe.FindStringSubmatch(line); m != nil {
			flushRaw()
			flushBlock()
			block = &Block{ID: m[1]}
			continue
		}
		if block != nil {
			if sectionHeadingRe.MatchString(line) {
				flushBlock()
				raw = append(raw, line)
				continue
			}
			block.Lines = append(block.Lines, line)
			continue
		}
		raw = append(raw, line)
	}
	flushRaw()
	flushBlock()

	return doc
}

// Render reassembles the document into markdown text.
func (d *Document) Render() string {
	var b strings.Builder
	for _, seg := range d.segments {
		if seg.block != nil {
			b.WriteString("### " + seg.block.ID + "\n")
			for _, line := range seg.block.Lines {
				b.WriteString(line + "\n")
			}
			continue
		}
		for _, line := range seg.raw {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// Find returns the requirement block with the given ID, or nil.
func (d *Document) Find(id string) *Block {
	for _, seg := range d.segments {
		if seg.block != nil && seg.block.ID == id {
			return seg.block
		}
	}
	return nil
}

// Replace swaps the block with the given ID for a new one.
// Returns false if no block with that ID exists.
func (d *Document) Replace(id string, block Block) bool {
	for i := range d.segments {
		if d.segments[i].block != nil && d.segments[i].block.ID == id {
			d.segments[i].block = &block
			return true
		}
	}
	return false
}

// Remove deletes the block with the given ID.
// Returns false if no block with that ID exists.
func (d *Document) Remove(id string) bool {
	for i := range d.segments {
		if d.segments[i].block != nil && d.segments[i].block.ID == id {
			d.segments = append(d.segments[:i], d.segments[i+1:]...)
			return true
		}
	}
	return false
}

// Append inserts a new requirement block at the end of the requirements
// region: after the last existing block, or after the "## Requirements"
// heading when the document has no blocks yet, or at the end of the
// document as a last resort. Returns false only when the block could
// not be anchored inside a requirements section (no blocks and no
// "## Requirements" heading).
func (d *Document) Append(block Block) bool {
	// Normalize: a block always ends with one blank separator line.
	block.Lines = trimTrailingBlank(block.Lines)
	block.Lines = append(block.Lines, "")

	for i := len(d.segments) - 1; i >= 0; i-- {
		if d.segments[i].block != nil {
			rest := make([]segment, len(d.segments[i+1:]))
			copy(rest, d.segments[i+1:])
			d.segments = append(d.segments[:i+1], segment{block: &block})
			d.segments = append(d.segments, rest...)
			return true
		}
	}

	// No blocks yet: anchor after the requirements heading.
	for i, seg := range d.segments {
		if seg.block != nil {
			continue
		}
		for j, line := range seg.raw {
			if requirementsRe.MatchString(line) {
				before := append([]string{}, seg.raw[:j+1]...)
				// Keep the blank line that follows the heading, if any.
				k := j + 1
				if k < len(seg.raw) && strings.TrimSpace(seg.raw[k]) == "" {
					before = append(before, seg.raw[k])
					k++
				}
				after := append([]string{}, seg.raw[k:]...)
				tail := make([]segment, len(d.segments[i+1:]))
				copy(tail, d.segments[i+1:])

				d.segments = d.segments[:i]
				d.segments = append(d.segments, segment{raw: before})
				d.segments = append(d.segments, segment{block: &block})
				if len(after) > 0 {
					d.segments = append(d.segments, segment{raw: after})
				}
				d.segments = append(d.segments, tail...)
				return true
			}
		}
	}

	return false
}

// RequirementIDs returns the IDs of all requirement blocks in document order.
func (d *Document) RequirementIDs() []string {
	var ids []string
	for _, seg := range d.segments {
		if seg.block != nil {
			ids = append(ids, seg.block.ID)
		}
	}
	return ids
}

// Requirement converts a block into the structured requirement model.
// Text is the space-joined prose lines; priority and scenarios are
// pulled from their marker lines when present.
func (b *Block) Requirement() Requirement {
	req := Requirement{ID: b.ID, Priority: PriorityP1}

	var textParts []string
	inScenarios := false
	for _, line := range b.Lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := priorityLineRe.FindStringSubmatch(trimmed); m != nil {
			req.Priority = Priority(m[1])
			inScenarios = false
			continue
		}
		if strings.EqualFold(trimmed, "**Scenarios:**") {
			inScenarios = true
			continue
		}
		if m := listLineRe.FindStringSubmatch(trimmed); m != nil && inScenarios {
			req.Scenarios = append(req.Scenarios, ParseScenario(fmt.Sprintf("%s-S%d", b.ID, len(req.Scenarios)+1), m[1]))
			continue
		}
		textParts = append(textParts, trimmed)
	}
	req.Text = strings.Join(textParts, " ")
	return req
}

// NewBlock renders a structured requirement into a document block.
func NewBlock(req Requirement) Block {
	lines := []string{req.Text, ""}
	priority := req.Priority
	if !priority.Valid() {
		priority = PriorityP1
	}
	lines = append(lines, "**Priority:** "+string(priority))
	if len(req.Scenarios) > 0 {
		lines = append(lines, "", "**Scenarios:**")
		for _, sc := range req.Scenarios {
			lines = append(lines, "- "+RenderScenario(sc))
		}
	}
	return Block{ID: req.ID, Lines: lines}
}

// ParseScenario splits a "Given X, when Y, then Z" line into its parts.
// Lines that do not follow the shape land entirely in Given, so nothing
// is lost on a round trip.
func ParseScenario(id, raw string) Scenario {
	sc := Scenario{ID: id, Given: strings.TrimSpace(raw)}

	lower := strings.ToLower(raw)
	whenIdx := strings.Index(lower, ", when ")
	thenIdx := strings.Index(lower, ", then ")
	if whenIdx < 0 || thenIdx < 0 || thenIdx < whenIdx {
		return sc
	}

	sc.Given = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw[:whenIdx]), "Given "))
	sc.Given = strings.TrimPrefix(sc.Given, "given ")
	sc.When = strings.TrimSpace(raw[whenIdx+len(", when ") : thenIdx])
	sc.Then = strings.TrimSpace(raw[thenIdx+len(", then "):])
	return sc
}

// RenderScenario formats a scenario back into a single list line.
func RenderScenario(sc Scenario) string {
	if sc.When == "" && sc.Then == "" {
		return sc.Given
	}
	return fmt.Sprintf("Given %s, when %s, then %s", sc.Given, sc.When, sc.Then)
}

// ParseSpec extracts the structured Spec view from base spec markdown:
// title, ID and stage header fields, description section, and all
// requirement blocks. Used for EARS validation and tracker hydration.
func ParseSpec(content string) (*Spec, error) {
	doc := ParseDocument(content)
	s := &Spec{Stage: StageSpec, Metadata: map[string]string{}}

	inDescription := false
	var desc []string
	for _, seg := range doc.segments {
		if seg.block != nil {
			s.Requirements = append(s.Requirements, seg.block.Requirement())
			continue
		}
		for _, line := range seg.raw {
			trimmed := strings.TrimSpace(line)
			if m := titleRe.FindStringSubmatch(trimmed); m != nil && s.Name == "" {
				s.Name = strings.TrimSpace(m[1])
				continue
			}
			if sectionHeadingRe.MatchString(trimmed) {
				inDescription = strings.EqualFold(trimmed, "## Description")
				continue
			}
			if m := headerFieldRe.FindStringSubmatch(trimmed); m != nil {
				switch strings.ToLower(m[1]) {
				case "id":
					s.ID = strings.TrimSpace(m[2])
				case "stage":
					s.Stage = Stage(strings.ToLower(strings.TrimSpace(m[2])))
				}
				continue
			}
			if inDescription && trimmed != "" {
				desc = append(desc, trimmed)
			}
		}
	}
	s.Description = strings.Join(desc, " ")

	if s.ID == "" {
		return nil, fmt.Errorf("[%s] spec document has no **ID:** field", ErrInvalidSpecID)
	}
	if err := ValidateID(s.ID); err != nil {
		return nil, err
	}
	if !s.Stage.Valid() {
		return nil, fmt.Errorf("[%s] spec %s has unknown stage %q", ErrInvalidStage, s.ID, s.Stage)
	}
	return s, nil
}

// RenderSpec scaffolds a fresh base spec document for a new spec.
func RenderSpec(s *Spec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	fmt.Fprintf(&b, "**ID:** %s\n", s.ID)
	fmt.Fprintf(&b, "**Stage:** %s\n\n", s.Stage)
	b.WriteString("## Description\n\n")
	if s.Description != "" {
		b.WriteString(s.Description + "\n")
	}
	b.WriteString("\n## Requirements\n\n")

	doc := ParseDocument(b.String())
	for _, req := range s.Requirements {
		doc.Append(NewBlock(req))
	}
	return doc.Render()
}

// splitLines splits content into lines without trailing newlines.
// A trailing newline on the final line does not produce an empty tail line.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
