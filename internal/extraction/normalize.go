package extraction

import (
	"regexp"
	"strings"
)

// MaxNormalizedLength bounds normalized text to keep downstream prompt and
// token cost predictable.
const MaxNormalizedLength = 2000

var (
	reDisallowed = regexp.MustCompile(`[^\w\s$.\-:()/,]`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// NormalizeText cleans raw OCR output before it is fed to any parser: strips
// characters outside the whitelist, collapses whitespace runs to a single
// space, trims, and truncates to MaxNormalizedLength. Idempotent.
func NormalizeText(raw string) string {
	s := reDisallowed.ReplaceAllString(raw, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) > MaxNormalizedLength {
		s = strings.TrimSpace(s[:MaxNormalizedLength])
	}
	return s
}
