// Package validator checks a sanitized candidate rewrite against the
// story's vocabulary before it is ever sent to the interpreter (spec
// §4.9, component C9). It is the last line of defense that keeps the
// LLM from injecting a command the parser was never going to accept.
package validator

import (
	"strings"

	"github.com/hfyorke/zrepair/internal/vocabulary"
)

var directionAliases = map[string]struct{}{
	"n": {}, "s": {}, "e": {}, "w": {},
	"ne": {}, "nw": {}, "se": {}, "sw": {},
	"u": {}, "d": {}, "up": {}, "down": {},
}

const maxWords = 6

// Validate returns the rewrite unchanged if it passes, or ("", false) if
// it should be rejected. reason describes a rejection for telemetry.
func Validate(rewrite string, vocab *vocabulary.Vocabulary) (accepted string, ok bool, reason string) {
	words := strings.Fields(rewrite)
	if len(words) == 0 {
		return "", false, "empty rewrite"
	}
	if len(words) > maxWords {
		return "", false, "too many words"
	}

	verb := strings.ToLower(words[0])
	if _, isDirection := directionAliases[verb]; isDirection {
		return rewrite, true, ""
	}

	if !vocab.ContainsVerb(verb) {
		return "", false, "verb not in vocabulary: " + verb
	}

	return rewrite, true, ""
}

// ValidateUnknownVerb re-runs the verb-membership check explicitly for
// UnknownVerb failures, per spec §4.9 ("the same check is repeated
// explicitly"). It is semantically identical to Validate but kept as a
// distinct entry point so a caller driving the UnknownVerb branch of the
// retry state machine can assert the specific reason it ran.
func ValidateUnknownVerb(rewrite string, vocab *vocabulary.Vocabulary) (accepted string, ok bool, reason string) {
	return Validate(rewrite, vocab)
}
