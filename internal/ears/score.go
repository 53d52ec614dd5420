package ears

import (
	"math"

	"github.com/specfold/specfold/internal/spec"
)

// Summary is the aggregate EARS validation result for a whole spec.
type Summary struct {
	SpecID         string       `json:"spec_id"`
	Results        []Result     `json:"results"`
	Total          int          `json:"total"`
	Compliant      int          `json:"compliant"`
	Score          int          `json:"score"`
	ByType         map[Type]int `json:"by_type"`
	Recommendation string       `json:"recommendation"`
}

// ValidateRequirements validates every requirement of a spec and
// aggregates the results into a score and a recommendation.
func ValidateRequirements(s *spec.Spec) Summary {
	summary := Summary{
		SpecID: s.ID,
		ByType: make(map[Type]int),
	}

	for _, req := range s.Requirements {
		res := ValidateRequirement(req.Text)
		summary.Results = append(summary.Results, res)
		summary.Total++
		summary.ByType[res.Type]++
		if res.IsCompliant {
			summary.Compliant++
		}
	}

	if summary.Total > 0 {
		summary.Score = int(math.Round(float64(summary.Compliant) / float64(summary.Total) * 100))
	}
	summary.Recommendation = recommendation(summary.Score)
	return summary
}

// Score is a convenience wrapper returning only the 0-100 score.
func Score(s *spec.Spec) int {
	return ValidateRequirements(s).Score
}

// recommendation maps a score to the four-tier textual banding.
func recommendation(score int) string {
	switch {
	case score >= 90:
		return "Excellent: requirements are EARS-compliant and ready for test generation"
	case score >= 70:
		return "Good: most requirements are EARS-compliant; tighten the flagged ones"
	case score >= 50:
		return "Fair: rewrite the non-compliant requirements before moving on"
	default:
		return "Poor: requirements need a rewrite pass using the EARS templates"
	}
}
