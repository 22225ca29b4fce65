package preimage

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifyMatchingPair(t *testing.T) {
	raw := []byte("a 32 byte preimage padded.......")
	hash := sha256.Sum256(raw)

	if !Verify(hex.EncodeToString(raw), hex.EncodeToString(hash[:])) {
		t.Fatal("expected matching preimage/hash pair to verify")
	}
}

func TestVerifyRejectsMismatch(t *testing.T) {
	raw := []byte("a 32 byte preimage padded.......")
	other := []byte("a different 32 byte value here.")
	hash := sha256.Sum256(other)

	if Verify(hex.EncodeToString(raw), hex.EncodeToString(hash[:])) {
		t.Fatal("expected mismatched preimage/hash pair to fail")
	}
}

func TestVerifyRejectsBadHex(t *testing.T) {
	cases := []struct{ preimage, hash string }{
		{"not-hex", hex.EncodeToString(make([]byte, 32))},
		{hex.EncodeToString(make([]byte, 32)), "not-hex"},
		{"", ""},
	}
	for _, c := range cases {
		if Verify(c.preimage, c.hash) {
			t.Fatalf("expected Verify(%q, %q) to be false", c.preimage, c.hash)
		}
	}
}
