package dictionary

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hfyorke/zrepair/internal/storyreader"
)

// encodeWord packs a lowercase word into a fixed-width Z-character
// pair stream (4 bytes for v3), padding with code 5 (shift, renders as
// a trailing space once decoded) and setting the terminator bit on the
// last pair, mirroring how a real Inform compiler pads dictionary text.
func encodeWord(word string, pairs int) []uint8 {
	var zchars []uint8
	for _, r := range word {
		zchars = append(zchars, uint8(r-'a')+6)
	}
	for len(zchars) < pairs*3 {
		zchars = append(zchars, 5)
	}

	out := make([]uint8, 0, pairs*2)
	for i := 0; i < pairs*3; i += 3 {
		halfWord := uint16(zchars[i])<<10 | uint16(zchars[i+1])<<5 | uint16(zchars[i+2])
		if i+3 >= pairs*3 {
			halfWord |= 1 << 15
		}
		buf := make([]uint8, 2)
		binary.BigEndian.PutUint16(buf, halfWord)
		out = append(out, buf...)
	}
	return out
}

type fixtureEntry struct {
	word string
	flag uint8
}

// buildStory assembles a minimal v3 story with a dictionary table at a
// fixed offset, given a list of (word, flagByte) entries.
func buildStory(entries []fixtureEntry) []uint8 {
	const dictBase = 0x40
	const entryLength = 4 + 2 // 4 bytes text (v3) + 2 flag/data bytes

	story := make([]uint8, dictBase)
	story[0x00] = 3 // version
	binary.BigEndian.PutUint16(story[0x08:0x0a], uint16(dictBase))

	table := []uint8{0} // 0 separators
	table = append(table, entryLength)
	countBuf := make([]uint8, 2)
	binary.BigEndian.PutUint16(countBuf, uint16(len(entries)))
	table = append(table, countBuf...)

	for _, e := range entries {
		table = append(table, encodeWord(e.word, 2)...)
		table = append(table, e.flag, 0)
	}

	return append(story, table...)
}

func TestParseClassifiesEntriesByFlagByte(t *testing.T) {
	story := buildStory([]fixtureEntry{
		{"take", flagVerb},
		{"mailbox", flagNoun},
		{"rusty", flagAdjective},
		{"with", flagPreposition},
		{"frob", 0},
	})

	vocab, err := Parse(storyreader.New(story))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !vocab.ContainsVerb("take") {
		t.Error("expected take classified as verb")
	}
	if !vocab.ContainsNoun("mailbo") { // 6-char truncated "mailbox"
		t.Error("expected mailbox classified as noun (6-char truncated)")
	}
	if !vocab.ContainsAdjective("rusty") {
		t.Error("expected rusty classified as adjective")
	}
	if !vocab.ContainsPreposition("with") {
		t.Error("expected with classified as preposition")
	}
	if !vocab.Contains("frob") {
		t.Error("expected frob present in some bucket even though unclassified")
	}
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	story := buildStory([]fixtureEntry{{"take", flagVerb}})
	story[0x00] = 9 // out of 3-8 range

	if _, err := Parse(storyreader.New(story)); err == nil {
		t.Fatal("expected an error for unsupported version")
	}
}

func TestParseRejectsMissingDictionary(t *testing.T) {
	story := buildStory([]fixtureEntry{{"take", flagVerb}})
	binary.BigEndian.PutUint16(story[0x08:0x0a], 0)

	if _, err := Parse(storyreader.New(story)); err == nil {
		t.Fatal("expected an error when dictionary base is zero")
	}
}

// TestParseGoldenWordListsByType pins the exact per-type word sets a
// known story fixture must produce, so a regression in classify or in
// Vocabulary's bucketing shows up as a precise diff instead of a vague
// "some word missing" failure.
func TestParseGoldenWordListsByType(t *testing.T) {
	story := buildStory([]fixtureEntry{
		{"take", flagVerb},
		{"drop", flagVerb},
		{"mailbox", flagNoun},
		{"leaflet", flagNoun},
		{"rusty", flagAdjective},
		{"with", flagPreposition},
		{"into", flagPreposition},
	})

	vocab, err := Parse(storyreader.New(story))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if diff := cmp.Diff([]string{"drop", "take"}, vocab.Verbs()); diff != "" {
		t.Errorf("Verbs() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"leafle", "mailbo"}, vocab.Nouns()); diff != "" {
		t.Errorf("Nouns() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"into", "with"}, vocab.Prepositions()); diff != "" {
		t.Errorf("Prepositions() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"drop", "into", "leafle", "mailbo", "rusty", "take", "with"}, vocab.AllWords()); diff != "" {
		t.Errorf("AllWords() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoundTripEveryEntryLookupSucceeds(t *testing.T) {
	words := []fixtureEntry{
		{"take", flagVerb},
		{"drop", flagVerb},
		{"open", flagVerb},
		{"sword", flagNoun},
		{"troll", flagNoun},
	}
	vocab, err := Parse(storyreader.New(buildStory(words)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for _, e := range words {
		if !vocab.Contains(e.word) {
			t.Errorf("Contains(%q) = false after parsing, want true (round-trip invariant)", e.word)
		}
	}
}
