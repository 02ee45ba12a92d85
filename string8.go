package wad

import (
	"bytes"
	"strings"
)

// String8 is the WAD eight-character string type used for lump and texture names.
// Shorter names are NUL-padded; a full-length name has no terminator.
type String8 [8]byte

// NewString8 packs s into a String8. It fails with NameTooLong if s is longer than eight
// bytes and with InvalidName if s contains a NUL, a control character or a non-ASCII byte.
func NewString8(s string) (String8, error) {
	var n String8
	if len(s) > len(n) {
		return n, newError(KindNameTooLong, s, "%d bytes, limit is %d", len(s), len(n))
	}
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c > 0x7e {
			return n, newError(KindInvalidName, s, "byte 0x%02x at position %d", c, i)
		}
	}
	copy(n[:], s)
	return n, nil
}

// textureName packs a texture or flat name read back from map records. Unlike lump
// names these may hold any byte except NUL.
func textureName(s string) (String8, error) {
	var n String8
	if len(s) > len(n) {
		return n, newError(KindNameTooLong, s, "%d bytes, limit is %d", len(s), len(n))
	}
	if i := strings.IndexByte(s, 0); i >= 0 {
		return n, newError(KindInvalidName, s, "NUL at position %d", i)
	}
	copy(n[:], s)
	return n, nil
}

// String converts String8 to string, stopping at the first NUL
func (s String8) String() string {
	i := bytes.IndexByte(s[:], 0)
	if i == -1 {
		i = len(s)
	}
	return string(s[0:i])
}

// Canonical returns the upper-case form used for name comparisons
func (s String8) Canonical() string {
	return strings.ToUpper(s.String())
}

// Matches reports whether s names the same lump as name, ignoring case
func (s String8) Matches(name string) bool {
	return strings.EqualFold(s.String(), name)
}
