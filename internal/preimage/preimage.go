// Package preimage implements the Lightning payment proof check: a
// presented preimage is valid iff its SHA-256 equals the macaroon's payment
// hash, compared in constant time.
package preimage

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Verify reports whether SHA256(preimageHex) == paymentHashHex. Both
// arguments are lowercase hex. Any hex-decode failure yields false rather
// than an error — the admission path never has to special-case a
// malformed preimage differently from a wrong one.
func Verify(preimageHex, paymentHashHex string) bool {
	preimage, err := hex.DecodeString(preimageHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(paymentHashHex)
	if err != nil {
		return false
	}

	got := sha256.Sum256(preimage)
	return subtle.ConstantTimeCompare(got[:], want) == 1
}
