package analyzer

import (
	"fmt"
	"strings"

	"github.com/zombar/veracity/internal/models"
)

// buildExplanation renders the human-readable summary for a result. The
// score bands here (70/30) are looser than the classification thresholds
// (65/35), so a borderline False result can still read as "mixed".
func buildExplanation(details models.AnalysisDetails, score float64) string {
	var clauses []string

	if details.SuspiciousPatternsFound > 0 {
		clauses = append(clauses, fmt.Sprintf("Found %d suspicious language patterns", details.SuspiciousPatternsFound))
	}
	if details.CrediblePatternsFound > 0 {
		clauses = append(clauses, fmt.Sprintf("Found %d credibility indicators", details.CrediblePatternsFound))
	}
	if details.ExcessiveCapitals {
		clauses = append(clauses, "Excessive use of capital letters detected")
	}
	if details.ExcessivePunctuation {
		clauses = append(clauses, "Excessive punctuation usage detected")
	}
	if details.WordCount < 10 {
		clauses = append(clauses, "Text is very short, limiting analysis accuracy")
	}

	var base string
	switch {
	case score >= 70:
		base = "The text shows characteristics of reliable information."
	case score <= 30:
		base = "The text shows characteristics commonly associated with misinformation."
	default:
		base = "The text has mixed characteristics, making classification uncertain."
	}

	if len(clauses) == 0 {
		return base + " No significant patterns detected."
	}
	return base + " " + strings.Join(clauses, " ")
}
