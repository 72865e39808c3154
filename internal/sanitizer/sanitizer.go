// Package sanitizer cleans a raw LLM completion into a candidate rewrite
// string, or recognizes the model's explicit refusal sentinel (spec
// §4.8, component C8).
package sanitizer

import (
	"regexp"
	"strings"
)

const sentinel = "<NO_VALID_REWRITE>"

var knownPrefixes = []string{">", "Command:", "Rewrite:", "The command is:"}

var trailingPunct = regexp.MustCompile(`[.?!,]+$`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// Sanitize trims, strips prefixes/quotes/punctuation, collapses
// whitespace and lowercases raw. It returns ("", false) when the model
// signalled no valid rewrite or the cleaned result is blank.
func Sanitize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	if strings.Contains(strings.ToUpper(s), strings.ToUpper(sentinel)) {
		return "", false
	}

	for _, prefix := range knownPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}

	s = unwrapQuotes(s)

	if idx := strings.Index(s, ":"); idx >= 0 {
		after := strings.TrimSpace(s[idx+1:])
		if after != "" {
			s = after
		}
	}

	s = whitespaceRun.ReplaceAllString(s, " ")
	s = trailingPunct.ReplaceAllString(s, "")
	s = strings.ToLower(strings.TrimSpace(s))

	if s == "" {
		return "", false
	}
	return s, true
}

func unwrapQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	pairs := [][2]byte{{'"', '"'}, {'\'', '\''}, {'`', '`'}}
	for _, p := range pairs {
		if s[0] == p[0] && s[len(s)-1] == p[1] {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
