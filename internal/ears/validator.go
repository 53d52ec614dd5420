// Package ears validates requirement text against EARS ("Easy Approach
// to Requirements Syntax") shapes and scores spec-level compliance.
package ears

import (
	"fmt"
	"regexp"
	"strings"
)

// Type is an EARS requirement shape.
type Type string

const (
	TypeUbiquitous  Type = "ubiquitous"        // The system shall X
	TypeEventDriven Type = "event_driven"      // When E, the system shall X
	TypeStateDriven Type = "state_driven"      // While S, the system shall X
	TypeOptional    Type = "optional"          // Where C, the system shall X
	TypeUnwanted    Type = "unwanted_behavior" // If C, then the system shall X
	TypeUnknown     Type = "unknown"
)

// MinConfidence is the acceptance threshold for a pattern match. A
// match below this is downgraded to an issue instead of being accepted.
const MinConfidence = 0.7

// Word-count bounds for a well-formed requirement sentence.
const (
	minWords = 5
	maxWords = 40
)

// ambiguousWords weaken a requirement; each occurrence is one issue.
var ambiguousWords = []string{
	"should", "may", "might", "could", "possibly",
	"probably", "usually", "maybe", "perhaps",
}

// vagueTerms are untestable qualifiers; each occurrence is one issue
// naming the term.
var vagueTerms = []string{
	"appropriate", "adequate", "reasonable", "efficient",
	"user-friendly", "as needed",
}

// pattern pairs a full EARS template regex with a loose keyword regex.
// A full match scores 0.9; keyword-only scores 0.5, which falls below
// MinConfidence and surfaces as an issue.
type pattern struct {
	typ   Type
	full  *regexp.Regexp
	loose *regexp.Regexp
}

var patterns = []pattern{
	{
		typ:   TypeUbiquitous,
		full:  regexp.MustCompile(`(?i)^the\s+\S+(?:\s+\S+)?\s+shall\s+.+$`),
		loose: nil, // no weaker form: either it opens with "The <system> shall" or it doesn't
	},
	{
		typ:   TypeEventDriven,
		full:  regexp.MustCompile(`(?i)^when\s+.+?,\s*the\s+\S+(?:\s+\S+)?\s+shall\s+.+$`),
		loose: regexp.MustCompile(`(?i)^when\s+`),
	},
	{
		typ:   TypeStateDriven,
		full:  regexp.MustCompile(`(?i)^while\s+.+?,\s*the\s+\S+(?:\s+\S+)?\s+shall\s+.+$`),
		loose: regexp.MustCompile(`(?i)^while\s+`),
	},
	{
		typ:   TypeOptional,
		full:  regexp.MustCompile(`(?i)^where\s+.+?,\s*the\s+\S+(?:\s+\S+)?\s+shall\s+.+$`),
		loose: regexp.MustCompile(`(?i)^where\s+`),
	},
	{
		typ:   TypeUnwanted,
		full:  regexp.MustCompile(`(?i)^if\s+.+?,\s*then\s+the\s+\S+(?:\s+\S+)?\s+shall\s+.+$`),
		loose: regexp.MustCompile(`(?i)^if\s+`),
	},
}

var modalRe = regexp.MustCompile(`(?i)\b(shall|must|will)\b`)

// Result is the validation outcome for one requirement text.
type Result struct {
	Text        string   `json:"text"`
	IsCompliant bool     `json:"is_compliant"`
	Type        Type     `json:"type"`
	Confidence  float64  `json:"confidence"`
	Issues      []string `json:"issues,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// ValidateRequirement classifies text against the five EARS shapes and
// runs the quality checks. The text is compliant only when it matches a
// shape with confidence >= MinConfidence AND triggers zero quality
// issues.
func ValidateRequirement(text string) Result {
	res := Result{Text: text, Type: TypeUnknown}

	trimmed := strings.TrimSpace(text)
	res.Type, res.Confidence = classify(trimmed)

	var issues []string
	if res.Confidence > 0 && res.Confidence < MinConfidence {
		issues = append(issues, fmt.Sprintf(
			"Resembles an EARS %s requirement but does not follow the full template", res.Type))
	}
	if res.Type == TypeUnknown {
		issues = append(issues, "Does not match any EARS requirement pattern")
	}
	quality := qualityIssues(trimmed)
	issues = append(issues, quality...)
	res.Issues = issues

	res.IsCompliant = res.Confidence >= MinConfidence && len(quality) == 0
	if !res.IsCompliant {
		res.Suggestion = suggest(trimmed)
	}
	return res
}

// classify matches the text against the EARS patterns in order and
// returns the first hit with its confidence.
func classify(text string) (Type, float64) {
	for _, p := range patterns {
		if p.full.MatchString(text) {
			return p.typ, 0.9
		}
	}
	for _, p := range patterns {
		if p.loose != nil && p.loose.MatchString(text) {
			return p.typ, 0.5
		}
	}
	return TypeUnknown, 0
}

// qualityIssues runs the checks that are independent of pattern
// matching: modal verb presence, length bounds, ambiguous words, and
// vague terms.
func qualityIssues(text string) []string {
	var issues []string

	if !modalRe.MatchString(text) {
		issues = append(issues, "Missing modal verb (shall, must, or will)")
	}

	words := len(strings.Fields(text))
	if words < minWords {
		issues = append(issues, fmt.Sprintf("Requirement too short (%d words, minimum %d)", words, minWords))
	}
	if words > maxWords {
		issues = append(issues, fmt.Sprintf("Requirement too long (%d words, maximum %d)", words, maxWords))
	}

	for _, word := range ambiguousWords {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		for range re.FindAllString(text, -1) {
			issues = append(issues, fmt.Sprintf("Ambiguous word %q weakens the requirement", word))
		}
	}
	for _, term := range vagueTerms {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		for range re.FindAllString(text, -1) {
			issues = append(issues, fmt.Sprintf("Vague term %q is not testable", term))
		}
	}
	return issues
}

// templates for suggestion generation, one per EARS shape.
var templates = map[Type]string{
	TypeUbiquitous:  `Use the ubiquitous template: "The system shall <response>", e.g. "The system shall encrypt all stored data".`,
	TypeEventDriven: `Use the event-driven template: "When <trigger>, the system shall <response>", e.g. "When a user submits the form, the system shall validate all inputs".`,
	TypeStateDriven: `Use the state-driven template: "While <state>, the system shall <response>", e.g. "While in maintenance mode, the system shall reject write requests".`,
	TypeOptional:    `Use the optional-feature template: "Where <feature>, the system shall <response>", e.g. "Where SSO is configured, the system shall delegate authentication".`,
	TypeUnwanted:    `Use the unwanted-behavior template: "If <condition>, then the system shall <response>", e.g. "If the payment fails, then the system shall retain the cart".`,
}

// suggest recommends an EARS template based on keyword hints in the raw
// text, defaulting to the ubiquitous template.
func suggest(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "when ", "upon ", "after ", "on receipt"):
		return templates[TypeEventDriven]
	case containsAny(lower, "while ", "during ", "as long as"):
		return templates[TypeStateDriven]
	case containsAny(lower, "where "):
		return templates[TypeOptional]
	case containsAny(lower, "if ", "error", "fail", "invalid", "unable"):
		return templates[TypeUnwanted]
	default:
		return templates[TypeUbiquitous]
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
