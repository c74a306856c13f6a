package analyzer

import "regexp"

// suspiciousPatterns flag language associated with fabricated or sensational
// content. Compiled once at startup; the whole list is case-insensitive,
// including the capital-run pattern, so that one fires on any 15+ letter run.
var suspiciousPatterns = compilePatterns([]string{
	`\b(fake|false|hoax|satire|parody|onion|babylon bee)\b`,
	`\b(doctors hate|miracle cure|secret formula|hidden truth)\b`,
	`\b(100% proven|absolutely certain|guaranteed cure)\b`,
	`\b(they don't want you to know|mainstream media hiding|cover.?up)\b`,
	`[!]{3,}`,
	`[A-Z]{15,}`,
	`\b(click here|act now|limited time|don't miss)\b`,
	`\b(miracle|instant|overnight|revolutionary breakthrough)\b`,
	`\b(you won't believe|shocking truth|this will blow your mind)\b`,
	`\b(completely made up|totally false|obviously fake)\b`,
})

// crediblePatterns flag attribution, institutional, and news-register
// language associated with legitimate reporting.
var crediblePatterns = compilePatterns([]string{
	`\b(according to|study shows|research indicates|data suggests|findings show|confirms|verified)\b`,
	`\b(university|institute|journal|published|academic|college|school)\b`,
	`\b(evidence|statistics|analysis|peer-reviewed|scientific|research|data)\b`,
	`\b(reuters|ap news|bbc|cnn|npr|associated press|abc news|nbc|cbs|fox news)\b`,
	`\b(professor|dr\.|phd|researcher|scientist|expert|analyst|specialist)\b`,
	`\b(study|survey|poll|investigation|report|review|examination)\b`,
	`\b(government|official|ministry|department|agency|administration|authority)\b`,
	`\b(breaking news|news report|journalist|correspondent|reporter|editor)\b`,
	`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`,
	`\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`,
	`\b(said|told|stated|announced|confirmed|revealed|disclosed)\b`,
	`\b(police|court|judge|lawyer|attorney|trial|case|legal)\b`,
	`\b(hospital|medical|health|patient|doctor|treatment|clinic)\b`,
	`\b(company|corporation|business|industry|market|economic|financial)\b`,
	`\b(president|minister|senator|congressman|governor|mayor|official)\b`,
})

func compilePatterns(exprs []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return patterns
}
