// Package vocabulary holds the case-folded word sets extracted from a
// story's dictionary (spec §3, §4.4, component C4): verbs, nouns,
// adjectives, prepositions, and a misc bucket for anything the flag-byte
// convention didn't classify. Every lookup case-folds and truncates to
// the Z-machine's 6-character prefix before comparing against the sets,
// matching the "truncation-aware lookup" invariant in spec §3.
package vocabulary

import (
	"fmt"
	"sort"
	"strings"
)

// WordType is the classification of a dictionary entry.
type WordType int

const (
	Verb WordType = iota
	Noun
	Adjective
	Preposition
	Misc
)

const truncationLength = 6

// Vocabulary is immutable once Parse has finished populating it: callers
// must treat it as read-only afterwards (spec §3 "vocabulary
// monotonicity").
type Vocabulary struct {
	Version      uint8
	verbs        map[string]struct{}
	nouns        map[string]struct{}
	adjectives   map[string]struct{}
	prepositions map[string]struct{}
	misc         map[string]struct{}
}

// New returns an empty Vocabulary tagged with the story's version number.
func New(version uint8) *Vocabulary {
	return &Vocabulary{
		Version:      version,
		verbs:        make(map[string]struct{}),
		nouns:        make(map[string]struct{}),
		adjectives:   make(map[string]struct{}),
		prepositions: make(map[string]struct{}),
		misc:         make(map[string]struct{}),
	}
}

func truncate6(w string) string {
	w = strings.ToLower(w)
	if len(w) > truncationLength {
		return w[:truncationLength]
	}
	return w
}

// AddWord inserts w into the set for typ. Empty strings are ignored.
func (v *Vocabulary) AddWord(w string, typ WordType) {
	w = strings.TrimSpace(w)
	if w == "" {
		return
	}
	key := truncate6(w)

	switch typ {
	case Verb:
		v.verbs[key] = struct{}{}
	case Noun:
		v.nouns[key] = struct{}{}
	case Adjective:
		v.adjectives[key] = struct{}{}
	case Preposition:
		v.prepositions[key] = struct{}{}
	default:
		v.misc[key] = struct{}{}
	}
}

// Contains reports whether w (any case, any length) is present in any
// word-type set, truncated to 6 characters before lookup.
func (v *Vocabulary) Contains(w string) bool {
	key := truncate6(w)
	for _, set := range []map[string]struct{}{v.verbs, v.nouns, v.adjectives, v.prepositions, v.misc} {
		if _, ok := set[key]; ok {
			return true
		}
	}
	return false
}

// ContainsVerb reports whether w's 6-character lowercase prefix is a
// known verb.
func (v *Vocabulary) ContainsVerb(w string) bool {
	_, ok := v.verbs[truncate6(w)]
	return ok
}

// ContainsNoun reports whether w's 6-character lowercase prefix is a
// known noun.
func (v *Vocabulary) ContainsNoun(w string) bool {
	_, ok := v.nouns[truncate6(w)]
	return ok
}

// ContainsAdjective reports whether w's 6-character lowercase prefix is a
// known adjective.
func (v *Vocabulary) ContainsAdjective(w string) bool {
	_, ok := v.adjectives[truncate6(w)]
	return ok
}

// ContainsPreposition reports whether w's 6-character lowercase prefix is
// a known preposition.
func (v *Vocabulary) ContainsPreposition(w string) bool {
	_, ok := v.prepositions[truncate6(w)]
	return ok
}

// Verbs returns the lex-sorted list of known verbs (6-char truncated,
// lowercase forms as stored).
func (v *Vocabulary) Verbs() []string { return sortedKeys(v.verbs) }

// Nouns returns the lex-sorted list of known nouns.
func (v *Vocabulary) Nouns() []string { return sortedKeys(v.nouns) }

// Adjectives returns the lex-sorted list of known adjectives.
func (v *Vocabulary) Adjectives() []string { return sortedKeys(v.adjectives) }

// Prepositions returns the lex-sorted list of known prepositions.
func (v *Vocabulary) Prepositions() []string { return sortedKeys(v.prepositions) }

// AllWords returns the union of every set, lex-sorted.
func (v *Vocabulary) AllWords() []string {
	seen := make(map[string]struct{})
	for _, set := range []map[string]struct{}{v.verbs, v.nouns, v.adjectives, v.prepositions, v.misc} {
		for k := range set {
			seen[k] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Summary returns a short human-readable count of each bucket, useful for
// session-start diagnostics.
func (v *Vocabulary) Summary() string {
	return fmt.Sprintf(
		"vocabulary(v%d): %d verbs, %d nouns, %d adjectives, %d prepositions, %d misc",
		v.Version, len(v.verbs), len(v.nouns), len(v.adjectives), len(v.prepositions), len(v.misc),
	)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
