// Package detector classifies interpreter output as a parser failure, a
// game-state refusal, an ambiguity prompt, or ordinary narrative (spec
// §4.5, component C5). Detect is a pure function: given the same output
// string it always returns the same classification.
//
// The ordered-checks structure here mirrors the style of the other
// pattern-catalogue classifiers in the retrieved corpus (e.g. retry-
// reason classification in vsavkov-kilroy's attractor engine): a fixed
// list of (name, regexp) pairs walked in priority order, first match
// wins, with a final heuristic fallback bucket.
package detector

import (
	"regexp"
	"strings"
)

// FailureType is the classification Detect assigns to one piece of
// interpreter output.
type FailureType int

const (
	None FailureType = iota
	UnknownVerb
	UnknownNoun
	Syntax
	Ambiguity
	GameRefusal
	CatchAll
)

func (t FailureType) String() string {
	switch t {
	case None:
		return "None"
	case UnknownVerb:
		return "UnknownVerb"
	case UnknownNoun:
		return "UnknownNoun"
	case Syntax:
		return "Syntax"
	case Ambiguity:
		return "Ambiguity"
	case GameRefusal:
		return "GameRefusal"
	case CatchAll:
		return "CatchAll"
	default:
		return "Unknown"
	}
}

// Info is the result of a successful classification.
type Info struct {
	Type         FailureType
	MatchedText  string
	IsRewritable bool
}

func rewritable(t FailureType) bool {
	switch t {
	case UnknownVerb, UnknownNoun, Syntax, CatchAll:
		return true
	default:
		return false
	}
}

var roomPrefixes = []string{
	"you are in ", "you're in ", "you are at ", "you're at ",
	"you are on ", "you're on ", "you are inside ", "you're inside ",
	"you have ", "you see ", "you can see ", "you are standing",
	"you're standing", "you are sitting", "you're sitting",
	"north of ", "south of ", "east of ", "west of ",
	"exits:", "obvious exits:", "you can go ", "the room contains",
	"you notice", "you spot",
}

var statusLinePatterns = compileAll([]string{
	`^Score: `,
	`^Moves: \d+`,
	`^\s*\d+\.\s+`,
	`^>?\s*$`,
	`^>`,
	`^\[.*\]`,
})

var refusalPatterns = compileAll([]string{
	`You can('|’)?t do that`,
	`Nothing to \w+`,
	`That('|’)?s nothing to \w+`,
	`^It('s| is) (too dark|pitch dark|dark) to see\.$`,
	`^It('s| is) (too dark|pitch dark|dark)\.$`,
	`You( are not|'re not) holding`,
	`You don('|’)?t have`,
	`There( is|'s) nothing (here|there)`,
	`It('|’)?s locked`,
	`It('|’)?s (already )?(open|closed|locked)`,
	`You can('|’)?t (go|open|close|take)`,
})

var ambiguityPatterns = compileAll([]string{
	`Which do you mean, `,
	`Do you mean the `,
	`The word ["'].*?["'] (should be|is) (not|unused)`,
})

var unknownVerbPatterns = compileAll([]string{
	`I don('|’)?t know the word ["'].*?["']`,
	`I don('|’)?t understand (that|this) sentence`,
	`I don('|’)?t understand the word`,
	`I didn('|’)?t understand (that|this) sentence`,
	`You used the word ["'].*?["'] in a way that I don('|’)?t understand`,
	`I don('|’)?t know how to`,
	`That('|’)?s not a verb I recognise`,
	`That('|’)?s not a verb I recognize`,
	`That sentence (is not|isn('|’)?t) one I recognise`,
	`I can('|’)?t see that`,
	`I only understood you as far as`,
	`You seem to have said too much`,
})

var unknownNounPatterns = compileAll([]string{
	`You can('|’)?t see any such thing`,
	`I don('|’)?t see (that|the|any)?`,
	`There is (no|none of that) (here|here now)`,
	`You don('|’)?t see that here`,
	`You can('|’)?t see (a|the|any) .*(here|there|now)`,
	`There (is|are) no .*(here|there|available)`,
	`I can('|’)?t find (a|the|any)`,
	`What do you want to`,
	`(That|This) is not (available|here|present)`,
})

var strongErrorTokens = []string{
	"error", "invalid", "unknown", "impossible", "sorry",
	"try again", "no way", "huh", "what", "pardon",
}

var narrativeShapePatterns = compileAll([]string{
	`^The [A-Z][a-z]+ed\.?$`,
	`^You [a-z]+ed (the |a |an )?`,
	`^A[n]? [a-zA-Z][a-z]+.*\.$`,
	`^[A-Z][a-z]+ [a-z]+.*\.$`,
})

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

func anyMatch(patterns []*regexp.Regexp, s string) (string, bool) {
	for _, p := range patterns {
		if m := p.FindString(s); m != "" {
			return m, true
		}
	}
	return "", false
}

// Detect classifies a single piece of interpreter output. A nil return
// means the output is ordinary narrative or otherwise not a failure at
// all and should be echoed verbatim with no further action.
func Detect(output string) *Info {
	trimmed := strings.TrimSpace(output)

	// 1. Short-circuit non-errors.
	if trimmed == "" || trimmed == ">" || strings.HasPrefix(trimmed, "[") {
		return nil
	}

	// 2. Room-description prefixes.
	lower := strings.ToLower(trimmed)
	for _, prefix := range roomPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return nil
		}
	}

	// 3. Status-line patterns.
	if _, ok := anyMatch(statusLinePatterns, trimmed); ok {
		return nil
	}

	// 4. Game-refusal patterns.
	if m, ok := anyMatch(refusalPatterns, trimmed); ok {
		return &Info{Type: GameRefusal, MatchedText: m, IsRewritable: rewritable(GameRefusal)}
	}

	// 5. Ambiguity patterns.
	if m, ok := anyMatch(ambiguityPatterns, trimmed); ok {
		return &Info{Type: Ambiguity, MatchedText: m, IsRewritable: rewritable(Ambiguity)}
	}

	// 6. Unknown-verb patterns.
	if m, ok := anyMatch(unknownVerbPatterns, trimmed); ok {
		return &Info{Type: UnknownVerb, MatchedText: m, IsRewritable: rewritable(UnknownVerb)}
	}

	// 7. Unknown-noun patterns.
	if m, ok := anyMatch(unknownNounPatterns, trimmed); ok {
		return &Info{Type: UnknownNoun, MatchedText: m, IsRewritable: rewritable(UnknownNoun)}
	}

	// 8. Catch-all heuristic.
	if isCatchAllCandidate(trimmed) {
		return &Info{Type: CatchAll, MatchedText: trimmed, IsRewritable: rewritable(CatchAll)}
	}

	return nil
}

func isCatchAllCandidate(s string) bool {
	if len(s) >= 80 {
		return false
	}
	if strings.Contains(s, "\n") {
		return false
	}

	lower := strings.ToLower(s)
	hasStrongToken := false
	for _, token := range strongErrorTokens {
		if strings.Contains(lower, token) {
			hasStrongToken = true
			break
		}
	}
	if hasStrongToken {
		return true
	}

	_, narrativeShaped := anyMatch(narrativeShapePatterns, s)
	return !narrativeShaped
}
