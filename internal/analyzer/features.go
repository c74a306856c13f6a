package analyzer

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
)

// features is the record computed once per analysis. All fields derive from
// the cleaned text; the scorer never looks at the raw input.
type features struct {
	TextLength        int
	WordCount         int
	AvgWordLength     float64
	ExclamationCount  int
	QuestionCount     int
	CapitalRatio      float64
	SuspiciousScore   int
	CredibleScore     int
	AvgSentenceLength float64
	UniqueWordsRatio  float64
	FilteredWordCount int
	ExplicitFakeCount int
	NewsWordCount     int
}

type linguisticFeatures struct {
	avgSentenceLength float64
	uniqueWordsRatio  float64
	filteredWordCount int
}

// extractFeatures computes the full feature record for cleaned text.
func (a *Analyzer) extractFeatures(cleaned string) features {
	f := features{}

	f.TextLength = utf8.RuneCountInString(cleaned)

	tokens := strings.Fields(cleaned)
	f.WordCount = len(tokens)
	if len(tokens) > 0 {
		total := 0
		for _, tok := range tokens {
			total += utf8.RuneCountInString(tok)
		}
		f.AvgWordLength = float64(total) / float64(len(tokens))
	}

	f.ExclamationCount = strings.Count(cleaned, "!")
	f.QuestionCount = strings.Count(cleaned, "?")

	// Guard: ratio over zero runes stays zero.
	if f.TextLength > 0 {
		upper := 0
		for _, r := range cleaned {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		f.CapitalRatio = float64(upper) / float64(f.TextLength)
	}

	// Match counts are summed per pattern independently; overlaps across
	// patterns are not deduplicated.
	for _, p := range suspiciousPatterns {
		f.SuspiciousScore += len(p.FindAllStringIndex(cleaned, -1))
	}
	for _, p := range crediblePatterns {
		f.CredibleScore += len(p.FindAllStringIndex(cleaned, -1))
	}

	lower := strings.ToLower(cleaned)
	for _, term := range explicitFakeTerms {
		if strings.Contains(lower, term) {
			f.ExplicitFakeCount++
		}
	}
	for _, term := range newsLanguageTerms {
		if strings.Contains(lower, term) {
			f.NewsWordCount++
		}
	}

	ling := a.linguisticFeatures(cleaned, lower)
	f.AvgSentenceLength = ling.avgSentenceLength
	f.UniqueWordsRatio = ling.uniqueWordsRatio
	f.FilteredWordCount = ling.filteredWordCount

	return f
}

// linguisticFeatures tokenizes the lowercased cleaned text with Unicode word
// segmentation and derives sentence-length and vocabulary-diversity signals.
// A tokenizer fault degrades to zero-valued features rather than failing the
// whole analysis.
func (a *Analyzer) linguisticFeatures(cleaned, lower string) (lf linguisticFeatures) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("linguistic analysis failed, using zero-valued features", "panic", r)
			lf = linguisticFeatures{}
		}
	}()

	tokenCount := 0
	filtered := 0
	distinct := make(map[string]struct{})

	segments := words.FromString(lower)
	for segments.Next() {
		tok := segments.Value()
		// Whitespace segments are discarded; punctuation tokens count
		// toward sentence length but never toward vocabulary.
		if strings.TrimSpace(tok) == "" {
			continue
		}
		tokenCount++
		if a.stopWords[tok] || !isAlpha(tok) {
			continue
		}
		filtered++
		distinct[tok] = struct{}{}
	}

	terminators := strings.Count(cleaned, ".") + strings.Count(cleaned, "!") + strings.Count(cleaned, "?")
	lf.avgSentenceLength = float64(tokenCount) / float64(max(1, terminators))
	lf.uniqueWordsRatio = float64(len(distinct)) / float64(max(1, filtered))
	lf.filteredWordCount = filtered
	return lf
}

// isAlpha reports whether the token consists entirely of letters.
func isAlpha(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
