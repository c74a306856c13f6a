// Package analyzer implements the rule-based truthfulness engine: a
// deterministic feature extractor over cleaned text plus a weighted scoring
// function that maps the features to a bounded 0-100 credibility score.
package analyzer

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/zombar/veracity/internal/models"
	"github.com/zombar/veracity/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Analyzer scores free text for truthfulness. It holds only read-only state
// (compiled patterns live at package level, stop words here), so a single
// instance is safe for concurrent use without locking.
type Analyzer struct {
	stopWords map[string]bool
}

// scoreText is indirected so tests can inject an engine fault.
var scoreText = computeScore

// New creates a new Analyzer
func New() *Analyzer {
	return &Analyzer{
		stopWords: getStopWords(),
	}
}

// AnalyzeTruthfulness classifies text as True, False, or Uncertain with a
// confidence score and an explanation. The caller guarantees trimmed,
// non-empty input of 10-5000 characters. The engine never propagates a
// failure: any internal fault degrades to a neutral Uncertain result.
func (a *Analyzer) AnalyzeTruthfulness(ctx context.Context, text string) (result models.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("truthfulness analysis failed", "panic", r)
			result = models.Result{
				Classification:    models.ClassificationUncertain,
				Confidence:        0,
				TruthfulnessScore: 50,
				Error:             "Analysis failed due to technical error",
			}
		}
	}()

	ctx, span := tracing.StartSpan(ctx, "analyzer.analyze_truthfulness",
		attribute.Int("text.length", utf8.RuneCountInString(text)))
	defer span.End()
	_ = ctx

	cleaned := preprocess(text)
	feats := a.extractFeatures(cleaned)
	score := scoreText(feats)
	classification, confidence := classify(score)
	details := buildDetails(feats)

	span.SetAttributes(
		attribute.String("analysis.classification", string(classification)),
		attribute.Float64("analysis.score", score),
		attribute.Int("analysis.suspicious_patterns", feats.SuspiciousScore),
		attribute.Int("analysis.credible_patterns", feats.CredibleScore),
	)

	return models.Result{
		Classification:    classification,
		Confidence:        round1(confidence),
		TruthfulnessScore: round1(score),
		Details:           &details,
		Explanation:       buildExplanation(details, score),
	}
}
