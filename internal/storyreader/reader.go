// Package storyreader provides a bounds-checked, read-only byte view over
// a Z-machine story file (spec §4.1, component C1). It is grounded on the
// teacher's zcore.Core byte accessors, trimmed to the header fields the
// vocabulary extractor actually consults and made safe against truncated
// or corrupt files: every read reports zerr.KindCorruptStory instead of
// panicking on an out-of-range offset.
package storyreader

import (
	"encoding/binary"

	"github.com/hfyorke/zrepair/internal/zerr"
)

// Header offsets used by the vocabulary extractor (spec §3).
const (
	offsetVersion        = 0x00
	offsetDictionaryBase = 0x08
)

// Reader is an immutable, random-access view over story-file bytes. It
// never writes back to the underlying slice.
type Reader struct {
	bytes []uint8
}

// New copies the given bytes into a Reader. The caller's slice may be
// reused or mutated afterwards without affecting the Reader.
func New(storyBytes []uint8) *Reader {
	cp := make([]uint8, len(storyBytes))
	copy(cp, storyBytes)
	return &Reader{bytes: cp}
}

// Len returns the number of bytes backing this reader.
func (r *Reader) Len() int { return len(r.bytes) }

// ReadU8 reads a single byte at offset.
func (r *Reader) ReadU8(offset uint32) (uint8, error) {
	if offset >= uint32(len(r.bytes)) {
		return 0, zerr.New(zerr.KindCorruptStory, "read_u8 out of range")
	}
	return r.bytes[offset], nil
}

// ReadU16BE reads a big-endian 16-bit value at offset.
func (r *Reader) ReadU16BE(offset uint32) (uint16, error) {
	if offset+2 > uint32(len(r.bytes)) {
		return 0, zerr.New(zerr.KindCorruptStory, "read_u16_be out of range")
	}
	return binary.BigEndian.Uint16(r.bytes[offset : offset+2]), nil
}

// ReadSlice returns a read-only view of [offset, offset+length).
func (r *Reader) ReadSlice(offset uint32, length uint32) ([]uint8, error) {
	if offset+length > uint32(len(r.bytes)) {
		return nil, zerr.New(zerr.KindCorruptStory, "read_slice out of range")
	}
	return r.bytes[offset : offset+length], nil
}

// Version reads the story version byte at 0x00.
func (r *Reader) Version() (uint8, error) {
	return r.ReadU8(offsetVersion)
}

// DictionaryBase reads the absolute dictionary base address at 0x08.
func (r *Reader) DictionaryBase() (uint16, error) {
	return r.ReadU16BE(offsetDictionaryBase)
}
