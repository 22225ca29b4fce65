// Package macaroon implements the toll booth's bearer credential: a chained
// HMAC over a Lightning payment hash and an ordered list of caveat strings.
//
// This is deliberately not gopkg.in/macaroon.v2 or a macaroon-bakery — the
// credential here carries no third-party caveat discharge protocol, just a
// fixed, mint-time-ordered chain the server itself can verify offline. See
// DESIGN.md for why that choice is a standard-library affair rather than a
// dependency.
package macaroon

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Caveat keys recognized by Verify. Any other key is tolerated but ignored.
const (
	CaveatExpiresAt = "expires_at"
	CaveatEndpoint  = "endpoint"
	CaveatMethod    = "method"
	CaveatIP        = "ip"
)

// Macaroon is the bearer credential: a payment hash, an ordered list of
// caveats, and the chained-HMAC signature over both.
type Macaroon struct {
	ID        string   `json:"id"`
	Caveats   []string `json:"caveats"`
	Signature string   `json:"signature"`
}

// MintParams carries the fields Mint folds into caveats, in the fixed order
// expires_at, endpoint, method, ip. A zero value for a field omits its
// caveat.
type MintParams struct {
	PaymentHash string
	ExpiresAt   *time.Time
	Endpoint    string
	Method      string
	IP          string
}

// Mint assembles a Macaroon bound to paymentHash, computing the chained HMAC
// sig_0 = HMAC(secret, paymentHash), sig_i+1 = HMAC(sig_i, caveat_i).
//
// A missing secret or payment hash is a programmer error: it panics rather
// than returning an error.
func Mint(secret []byte, p MintParams) Macaroon {
	if len(secret) == 0 {
		panic("macaroon: Mint called with empty secret")
	}
	if p.PaymentHash == "" {
		panic("macaroon: Mint called with empty payment hash")
	}

	caveats := buildCaveats(p)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(p.PaymentHash))
	sig := mac.Sum(nil)

	for _, c := range caveats {
		mac = hmac.New(sha256.New, sig)
		mac.Write([]byte(c))
		sig = mac.Sum(nil)
	}

	return Macaroon{
		ID:        p.PaymentHash,
		Caveats:   caveats,
		Signature: hex.EncodeToString(sig),
	}
}

func buildCaveats(p MintParams) []string {
	caveats := make([]string, 0, 4)
	if p.ExpiresAt != nil {
		caveats = append(caveats, fmt.Sprintf("%s = %d", CaveatExpiresAt, p.ExpiresAt.Unix()))
	}
	if p.Endpoint != "" {
		caveats = append(caveats, fmt.Sprintf("%s = %s", CaveatEndpoint, p.Endpoint))
	}
	if p.Method != "" {
		caveats = append(caveats, fmt.Sprintf("%s = %s", CaveatMethod, p.Method))
	}
	if p.IP != "" {
		caveats = append(caveats, fmt.Sprintf("%s = %s", CaveatIP, p.IP))
	}
	return caveats
}

// Serialize encodes the macaroon as base64url (unpadded) of its JSON form.
func (m Macaroon) Serialize() string {
	buf, _ := json.Marshal(m)
	return base64.RawURLEncoding.EncodeToString(buf)
}

// Decode parses a serialized macaroon. Any structural failure — bad
// base64url, bad JSON, missing/mistyped fields — yields (Macaroon{}, false)
// rather than an error, so the request path never has to distinguish
// "malformed" from "absent" beyond a single boolean.
func Decode(raw string) (Macaroon, bool) {
	buf, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Macaroon{}, false
	}

	var shape struct {
		ID        json.RawMessage `json:"id"`
		Caveats   json.RawMessage `json:"caveats"`
		Signature json.RawMessage `json:"signature"`
	}
	if err := json.Unmarshal(buf, &shape); err != nil {
		return Macaroon{}, false
	}

	var m Macaroon
	if err := json.Unmarshal(buf, &m); err != nil {
		return Macaroon{}, false
	}
	if m.ID == "" || m.Signature == "" || m.Caveats == nil {
		return Macaroon{}, false
	}
	return m, true
}

// VerifyContext supplies the request-time values caveats are checked
// against. A zero-value (empty string) field disables that dimension's
// check: a caller may pass undefined for a context dimension to disable
// that check.
type VerifyContext struct {
	Endpoint string
	Method   string
	IP       string
	Now      time.Time
}

// Result is the outcome of Verify.
type Result struct {
	Valid       bool
	Error       string
	PaymentHash string
}

// Verify recomputes the chained HMAC exactly as Mint does, using m.ID and
// m.Caveats in their given (possibly attacker-unchangeable) order, then
// checks every caveat's predicate against ctx.
func Verify(secret []byte, m Macaroon, ctx VerifyContext) Result {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(m.ID))
	sig := mac.Sum(nil)

	for _, c := range m.Caveats {
		mac = hmac.New(sha256.New, sig)
		mac.Write([]byte(c))
		sig = mac.Sum(nil)
	}

	want, err := hex.DecodeString(m.Signature)
	if err != nil || subtle.ConstantTimeCompare(want, sig) != 1 {
		return Result{Valid: false, Error: "invalid signature", PaymentHash: m.ID}
	}

	for _, c := range m.Caveats {
		if err := checkCaveat(c, ctx); err != "" {
			return Result{Valid: false, Error: err, PaymentHash: m.ID}
		}
	}

	return Result{Valid: true, PaymentHash: m.ID}
}

// checkCaveat returns a non-empty error string on rejection, "" on pass.
func checkCaveat(c string, ctx VerifyContext) string {
	key, value, ok := strings.Cut(c, " = ")
	if !ok {
		return "malformed caveat"
	}

	switch key {
	case CaveatExpiresAt:
		exp, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return "malformed caveat"
		}
		now := ctx.Now
		if now.IsZero() {
			now = time.Now()
		}
		if now.Unix() > exp {
			return "Macaroon expired"
		}
	case CaveatEndpoint:
		if ctx.Endpoint != "" && ctx.Endpoint != value {
			return "Endpoint mismatch"
		}
	case CaveatMethod:
		if ctx.Method != "" && !strings.EqualFold(ctx.Method, value) {
			return "Method mismatch"
		}
	case CaveatIP:
		if ctx.IP != "" && ctx.IP != value {
			return "IP mismatch"
		}
	default:
		// Unknown caveat keys are tolerated for forward compatibility.
	}
	return ""
}
