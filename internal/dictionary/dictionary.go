// Package dictionary walks a Z-machine story's dictionary table and
// classifies each entry into (word, wordType) pairs (spec §3, §4.3,
// component C3). It is grounded on the teacher's dictionary.ParseDictionary
// (header layout, entry stride arithmetic) generalized to validate the
// table rather than trust it, and to classify entries by flag byte
// instead of only decoding text.
package dictionary

import (
	"github.com/hfyorke/zrepair/internal/storyreader"
	"github.com/hfyorke/zrepair/internal/vocabulary"
	"github.com/hfyorke/zrepair/internal/zerr"
	"github.com/hfyorke/zrepair/internal/zscii"
)

const (
	minVersion          = 3
	maxVersion          = 8
	minEntryLength      = 4
	maxEntryCount       = 10000
	v4EncodedTextLen    = 6
	preV4EncodedTextLen = 4
)

// flag bits on the first byte following a dictionary entry's encoded
// text (spec §3 "Per-entry flag byte").
const (
	flagVerb        = 0x40
	flagPreposition = 0x20
	flagAdjective   = 0x10
	flagNoun        = 0x08
)

// Entry is one parsed dictionary row.
type Entry struct {
	Word string
	Type vocabulary.WordType
}

// Parse reads the story's dictionary table and returns a fully populated
// Vocabulary. It never mutates the reader.
func Parse(r *storyreader.Reader) (*vocabulary.Vocabulary, error) {
	version, err := r.Version()
	if err != nil {
		return nil, zerr.Wrap(zerr.KindCorruptStory, "reading version", err)
	}
	if version < minVersion || version > maxVersion {
		return nil, zerr.New(zerr.KindUnsupportedVersion, "story version out of range 3-8")
	}

	dictBase, err := r.DictionaryBase()
	if err != nil {
		return nil, zerr.Wrap(zerr.KindCorruptStory, "reading dictionary base", err)
	}
	if dictBase == 0 {
		return nil, zerr.New(zerr.KindNoDictionary, "dictionary base address is zero")
	}

	base := uint32(dictBase)

	sepCount, err := r.ReadU8(base)
	if err != nil {
		return nil, zerr.Wrap(zerr.KindCorruptStory, "reading separator count", err)
	}

	entryLengthOffset := base + 1 + uint32(sepCount)
	entryLength, err := r.ReadU8(entryLengthOffset)
	if err != nil {
		return nil, zerr.Wrap(zerr.KindCorruptStory, "reading entry length", err)
	}
	if entryLength < minEntryLength {
		return nil, zerr.New(zerr.KindInvalidDictionary, "entry_length below minimum of 4")
	}

	entryCountSigned, err := r.ReadU16BE(entryLengthOffset + 1)
	if err != nil {
		return nil, zerr.Wrap(zerr.KindCorruptStory, "reading entry count", err)
	}
	entryCount := int16(entryCountSigned)
	if entryCount <= 0 || int(entryCount) > maxEntryCount {
		return nil, zerr.New(zerr.KindInvalidDictionary, "entry_count out of range")
	}

	entriesBase := entryLengthOffset + 1 + 2

	encodedTextLen := preV4EncodedTextLen
	if version > 3 {
		encodedTextLen = v4EncodedTextLen
	}

	vocab := vocabulary.New(version)

	for i := 0; i < int(entryCount); i++ {
		entryOffset := entriesBase + uint32(i)*uint32(entryLength)

		encoded, err := r.ReadSlice(entryOffset, uint32(encodedTextLen))
		if err != nil {
			return nil, zerr.Wrap(zerr.KindCorruptStory, "reading entry text", err)
		}

		flagBytes, err := r.ReadSlice(entryOffset+uint32(encodedTextLen), uint32(entryLength)-uint32(encodedTextLen))
		if err != nil {
			return nil, zerr.Wrap(zerr.KindCorruptStory, "reading entry flags", err)
		}

		word := zscii.Decode(encoded)
		wordType := classify(flagBytes)
		vocab.AddWord(word, wordType)
	}

	return vocab, nil
}

// classify reads the first flag byte after an entry's encoded text and
// maps it to a WordType per spec §3. This convention is compiler-
// dependent (spec §9 open questions): misclassification is expected for
// some stories compiled by Inform 7 or older Inform 6 releases.
func classify(flagBytes []uint8) vocabulary.WordType {
	if len(flagBytes) == 0 {
		return vocabulary.Misc
	}
	flags := flagBytes[0]
	switch {
	case flags&flagVerb == flagVerb:
		return vocabulary.Verb
	case flags&flagPreposition == flagPreposition:
		return vocabulary.Preposition
	case flags&flagAdjective == flagAdjective:
		return vocabulary.Adjective
	case flags&flagNoun == flagNoun:
		return vocabulary.Noun
	default:
		return vocabulary.Misc
	}
}
