// Package smc defines the raw sensor-reading source: 4-byte sensor keys,
// the Source interface the rest of the engine consumes, and an in-memory
// implementation for tests. The real SMC client lives behind a darwin
// build tag.
package smc

import "fmt"

// Key is a 4-byte sensor identifier, packed big-endian. Keys are
// printable ASCII by convention ("PSTR", "Tp01") but the engine treats
// them as opaque byte values.
type Key uint32

// ParseKey packs a 4-character string into a Key.
func ParseKey(s string) (Key, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("smc: key %q must be exactly 4 bytes", s)
	}
	return Key(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])), nil
}

// MustKey is ParseKey for known-good literals.
func MustKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// String unpacks the key back to its 4-character form.
func (k Key) String() string {
	return string([]byte{
		byte(k >> 24),
		byte(k >> 16),
		byte(k >> 8),
		byte(k),
	})
}

// HasPrefix reports whether the key's textual form starts with prefix.
// Classification rules match on this.
func (k Key) HasPrefix(prefix string) bool {
	s := k.String()
	return len(prefix) <= 4 && s[:len(prefix)] == prefix
}
