package prompts

import "strings"

const ellipsis = "..."

// Truncate shortens s to at most maxRunes runes, collapsing whitespace first
// and marking a cut with "...". A non-positive limit returns s unchanged.
func Truncate(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= len(ellipsis) {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-len(ellipsis)]) + ellipsis
}
