// Package zscii decodes the 5-bit packed Z-character text used by
// dictionary entries (spec §3 "ZSCII decoding (v3)", component C2).
//
// This is grounded on the teacher's zstring.ReadZString z-character
// stream extraction (bit shifts, pair-terminator detection) but scoped
// down to what dictionary words need: dictionary entries never carry
// abbreviations or alphabet shift-locks in practice (Infocom/Inform
// dictionaries are lowercase-alphanumeric, spec §4.2), so this decoder
// treats codes 0-5 as a space and 6-31 as the lowercase alphabet rather
// than threading the teacher's full three-alphabet shift state machine.
//
// Unlike the teacher's decoder, which stops at the first Z-character
// equal to zero (see spec §9 open questions: a documented source bug
// that can truncate entries containing legitimate shift codes), this
// decoder honors the encoded-pair terminator bit exclusively, per the
// spec-faithful fix called out there.
package zscii

import "encoding/binary"

// lowercase maps Z-character codes 6-31 to ASCII letters. Codes 6-31
// cover the 26 letters of the default A0 alphabet; codes beyond 'z' are
// not expected in a dictionary entry but are mapped defensively rather
// than panicking.
var lowercase = [...]byte{
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
}

// Decode reads consecutive 2-byte pairs starting at the front of data
// until a pair's high bit marks it as the last pair of the entry, or
// data is exhausted. It returns the decoded, trimmed lowercase string.
func Decode(data []uint8) string {
	var out []byte

	ptr := 0
	for ptr+2 <= len(data) {
		halfWord := binary.BigEndian.Uint16(data[ptr : ptr+2])
		isLastPair := (halfWord >> 15) == 1

		zchars := [3]uint8{
			uint8((halfWord >> 10) & 0b11111),
			uint8((halfWord >> 5) & 0b11111),
			uint8(halfWord & 0b11111),
		}

		for _, zchr := range zchars {
			switch {
			case zchr == 0:
				out = append(out, ' ')
			case zchr >= 1 && zchr <= 5:
				// Shift/abbreviation controls: not meaningful in a
				// dictionary entry, rendered as a space per spec §4.2.
				out = append(out, ' ')
			case zchr >= 6 && int(zchr-6) < len(lowercase):
				// The default A0 alphabet: code 6 is 'a', 31 is 'z'.
				out = append(out, lowercase[zchr-6])
			default:
				// Unmapped Z-character (non-letter code); emit a
				// placeholder rather than dropping the position, so
				// word length/alignment stays observable.
				out = append(out, '?')
			}
		}

		ptr += 2
		if isLastPair {
			break
		}
	}

	return trimTrailingSpace(string(out))
}

func trimTrailingSpace(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}
