package analyzer

import (
	"regexp"
	"strings"
)

var (
	// urlPattern matches http(s) URLs using the standard URL character set.
	urlPattern = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

	// charFilterPattern matches everything outside the whitelist of word
	// characters, whitespace, and punctuation kept for pattern analysis.
	// Go's \w is ASCII-only, so Unicode letters and digits are listed
	// explicitly to keep accented input intact.
	charFilterPattern = regexp.MustCompile(`[^\w\s\p{L}\p{N}.,!?;:'"()-]`)
)

// preprocess strips URLs and non-whitelisted characters from text. The
// returned cleaned text is what every downstream step operates on.
func preprocess(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = charFilterPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
