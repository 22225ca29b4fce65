// Package replay implements an optional server-side seen-set: single-use
// enforcement layered on top of the otherwise purely cryptographic
// macaroon credential.
//
// It is disabled by default: persistence or even in-memory replay
// tracking is not mandated, since a macaroon's expires_at caveat already
// bounds its useful life. Operators who want single-use semantics opt in
// by giving Store both a positive size and a positive TTL.
//
// Uses hashicorp/golang-lru's expirable variant, which needs no separate
// sweeper goroutine, unlike the free-tier accountant's sweep.
package replay

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store records payment hashes that have already been used to admit a
// request, so a second presentation of the same macaroon+preimage pair can
// be rejected.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

// New creates a Store that remembers up to size payment hashes for ttl.
// A zero or negative size/ttl disables tracking: Seen always reports
// false and never records anything.
func New(size int, ttl time.Duration) *Store {
	if size <= 0 || ttl <= 0 {
		return &Store{}
	}
	return &Store{cache: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// Enabled reports whether this Store tracks anything at all.
func (s *Store) Enabled() bool {
	return s.cache != nil
}

// Seen records paymentHash as used and reports whether it had already been
// recorded. Call it only after a macaroon has verified successfully —
// checking replay status before signature verification would let an
// attacker probe whether a fabricated payment hash happens to be
// "already used" without ever producing a valid signature.
func (s *Store) Seen(paymentHash string) bool {
	if s.cache == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.Contains(paymentHash) {
		return true
	}
	s.cache.Add(paymentHash, struct{}{})
	return false
}
