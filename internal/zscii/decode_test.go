package zscii

import (
	"encoding/binary"
	"testing"
)

// encode packs a string of lowercase a-z letters (and spaces) into the
// 2-byte-pair stream Decode expects, setting the terminator bit on the
// final pair. It pads the last triple with code 5 (shift, renders as
// space) the way a v3 dictionary entry is padded.
func encode(t *testing.T, letters string) []uint8 {
	t.Helper()

	var zchars []uint8
	for _, r := range letters {
		if r == ' ' {
			zchars = append(zchars, 0)
			continue
		}
		zchars = append(zchars, uint8(r-'a')+6)
	}
	for len(zchars)%3 != 0 {
		zchars = append(zchars, 5)
	}

	out := make([]uint8, 0, len(zchars)/3*2)
	for i := 0; i < len(zchars); i += 3 {
		halfWord := uint16(zchars[i])<<10 | uint16(zchars[i+1])<<5 | uint16(zchars[i+2])
		if i+3 >= len(zchars) {
			halfWord |= 1 << 15
		}
		buf := make([]uint8, 2)
		binary.BigEndian.PutUint16(buf, halfWord)
		out = append(out, buf...)
	}
	return out
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		word string
	}{
		{"take"},
		{"mailbox"},
		{"x"},
		{"examine"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got := Decode(encode(t, tt.word))
			if got != tt.word {
				t.Fatalf("Decode() = %q, want %q", got, tt.word)
			}
		})
	}
}

func TestDecodeHonorsTerminatorBitNotZeroZchar(t *testing.T) {
	// "a a" contains a zero z-character (the space between words) before
	// the final letter of the terminator pair; a decoder that short-circuits on the
	// first zero z-character (the documented source bug, spec §9) would
	// truncate after the first letter. This decoder must not do that.
	data := encode(t, "a a")
	got := Decode(data)
	if got != "a a" {
		t.Fatalf("Decode() = %q, want %q (decoder must honor the terminator bit, not stop at zero)", got, "a a")
	}
}

func TestDecodeEmpty(t *testing.T) {
	if got := Decode(nil); got != "" {
		t.Fatalf("Decode(nil) = %q, want empty", got)
	}
}

func TestDecodeTruncatedPairIgnored(t *testing.T) {
	// A single trailing byte with no partner pair must not panic; it is
	// simply not enough data to form a Z-character triple.
	got := Decode([]uint8{0x00})
	if got != "" {
		t.Fatalf("Decode() = %q, want empty for truncated input", got)
	}
}
