// Package idgen generates opaque identifiers for stored entities.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

// randomBytes is the entropy per generated ID. 12 bytes keeps IDs short
// enough for URLs while making collisions practically impossible.
const randomBytes = 12

// WithPrefix returns a new random ID of the form prefix + 24 hex chars,
// e.g. WithPrefix("cmp_") -> "cmp_3f8a91c02b7d64e15a09d233".
// The prefix makes IDs self-describing in logs and API payloads.
func WithPrefix(prefix string) string {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// there is no sensible way to continue issuing IDs.
		panic("idgen: crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}
