package models

import "time"

// Classification is the verdict assigned to an analyzed text
type Classification string

const (
	ClassificationTrue      Classification = "True"
	ClassificationFalse     Classification = "False"
	ClassificationUncertain Classification = "Uncertain"
)

// Valid reports whether c is one of the three known verdicts
func (c Classification) Valid() bool {
	switch c {
	case ClassificationTrue, ClassificationFalse, ClassificationUncertain:
		return true
	}
	return false
}

// Result is the outcome of a truthfulness analysis
type Result struct {
	Classification    Classification   `json:"classification"`
	Confidence        float64          `json:"confidence"`         // 0-100, one decimal place
	TruthfulnessScore float64          `json:"truthfulness_score"` // 0-100, one decimal place
	Details           *AnalysisDetails `json:"analysis_details,omitempty"`
	Explanation       string           `json:"explanation,omitempty"`
	Error             string           `json:"error,omitempty"` // set only on the degraded path
}

// AnalysisDetails carries the per-analysis signals behind a Result
type AnalysisDetails struct {
	WordCount               int     `json:"word_count"`
	SuspiciousPatternsFound int     `json:"suspicious_patterns_found"`
	CrediblePatternsFound   int     `json:"credible_patterns_found"`
	ExcessiveCapitals       bool    `json:"excessive_capitals"`
	ExcessivePunctuation    bool    `json:"excessive_punctuation"`
	ReadabilityScore        float64 `json:"readability_score"` // 0-100, higher reads easier
}

// Analysis is a stored analysis record with its result
type Analysis struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Result    Result    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
