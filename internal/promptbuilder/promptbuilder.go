// Package promptbuilder builds the system and user prompts sent to the
// LLM client (spec §4.6, component C6). The vocabulary slice handed to
// the model is pruned and failure-type specific so the prompt stays
// small and the model only ever sees words the story can actually parse.
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/hfyorke/zrepair/internal/detector"
	"github.com/hfyorke/zrepair/internal/vocabulary"
)

const maxGameOutputChars = 500

// expansions maps common 6-character truncated dictionary forms to a
// likely full word, so the model sees human-legible tokens instead of
// raw truncated stems (spec §4.6).
var expansions = map[string]string{
	"examin": "examine",
	"activa": "activate",
	"invent": "inventory",
	"unlock": "unlock",
	"climbe": "climb",
	"follow": "follow",
	"remove": "remove",
	"switch": "switch",
	"extrac": "extract",
	"disemb": "disembark",
}

func expand(word string) string {
	if full, ok := expansions[word]; ok {
		return full
	}
	return word
}

func expandAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = expand(w)
	}
	return out
}

func topN(words []string, n int) []string {
	if len(words) <= n {
		return words
	}
	return words[:n]
}

const systemPrompt = `You rewrite a single failed text-adventure command using ONLY words from the vocabulary list provided in the user message. You have one job: produce an equivalent command the story's parser will accept.

Rules:
- Never invent objects, rooms, or game state. Never give hints or reveal solutions to puzzles.
- Use only words present in the supplied vocabulary slice, or a compass direction (n, s, e, w, ne, nw, se, sw, u, d, up, down, in, out).
- Standard abbreviations: x=examine, i=inventory, l=look, z=wait, u=up, d=down.
- Normalize idioms before choosing a verb: "pick up" -> take, "look at" -> examine, "check out" -> examine. Drop politeness words (please, kindly, could you).
- Reply with ONLY the rewritten command, nothing else - no quotes, no explanation, no punctuation.
- If no faithful rewrite is possible using the supplied vocabulary, reply with exactly: <NO_VALID_REWRITE>`

// Build returns (systemPrompt, userPrompt) for one rewrite attempt.
// other is the no-rewrite-attempt case for any FailureType the vocabulary
// slice table in spec §4.6 doesn't cover; callers should not invoke the
// LLM client at all when Build returns an empty user prompt.
func Build(gameOutput string, failedCommand string, failureType detector.FailureType, vocab *vocabulary.Vocabulary) (system string, user string) {
	truncatedOutput := gameOutput
	if len(truncatedOutput) > maxGameOutputChars {
		truncatedOutput = truncatedOutput[:maxGameOutputChars]
	}

	slice := vocabularySlice(failureType, vocab)
	if slice == "" {
		return systemPrompt, ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Game output:\n%s\n\n", truncatedOutput)
	fmt.Fprintf(&b, "Failed command: %s\n\n", failedCommand)
	fmt.Fprintf(&b, "Failure type: %s\n\n", failureType)
	fmt.Fprintf(&b, "Vocabulary:\n%s\n", slice)

	return systemPrompt, b.String()
}

func vocabularySlice(failureType detector.FailureType, vocab *vocabulary.Vocabulary) string {
	switch failureType {
	case detector.UnknownVerb:
		return joinLabeled("verbs", expandAll(topN(vocab.Verbs(), 50))) + "\n" +
			joinLabeled("prepositions", expandAll(vocab.Prepositions()))
	case detector.UnknownNoun:
		return joinLabeled("nouns", expandAll(topN(vocab.Nouns(), 50))) + "\n" +
			joinLabeled("adjectives", expandAll(topN(vocab.Adjectives(), 30)))
	case detector.Syntax:
		return joinLabeled("verbs", expandAll(topN(vocab.Verbs(), 30))) + "\n" +
			joinLabeled("nouns", expandAll(topN(vocab.Nouns(), 30))) + "\n" +
			joinLabeled("prepositions", expandAll(vocab.Prepositions()))
	case detector.CatchAll:
		return joinLabeled("verbs", expandAll(topN(vocab.Verbs(), 30))) + "\n" +
			joinLabeled("nouns", expandAll(topN(vocab.Nouns(), 30)))
	default:
		return ""
	}
}

func joinLabeled(label string, words []string) string {
	return fmt.Sprintf("%s: %s", label, strings.Join(words, ", "))
}
