// Package tollerrors classifies and renders the gate's error responses: a
// flat `{"error": "<message>"}` body, an HTTP status, and a retryability
// flag per error kind.
package tollerrors

import (
	"net/http"

	"github.com/jeletor/lightning-toll/pkg/responders"
)

// Code is a machine-readable error kind, used internally for status/retry
// dispatch. It is never serialized to the client — the wire body only
// ever carries the human-readable message.
type Code string

const (
	CodeInvalidMacaroon  Code = "invalid_macaroon"
	CodeInvalidSignature Code = "invalid_signature"
	CodeCaveatFailed     Code = "caveat_failed"
	CodeInvalidPreimage  Code = "invalid_preimage"
	CodeWalletError      Code = "wallet_error"
)

// statusFor maps a Code to its HTTP status.
func statusFor(c Code) int {
	switch c {
	case CodeWalletError:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// retryableFor reports whether a client may usefully retry the same
// request after this error. Caveat failures are mixed: an expired
// macaroon is not retryable with the same credential, but the middleware
// does not currently distinguish caveat sub-kinds at this layer, so the
// safer default is non-retryable; callers needing finer control classify
// by message.
func retryableFor(c Code) bool {
	return c == CodeWalletError
}

// body is the wire shape: a single "error" field carrying the message.
type body struct {
	Error string `json:"error"`
}

// Write renders the error for code with the given message to w, setting
// status and Content-Type appropriately.
func Write(w http.ResponseWriter, code Code, message string) {
	responders.JSON(w, statusFor(code), body{Error: message})
}

// Retryable reports whether an error of this Code is retryable, for
// callers that want to surface it outside the HTTP response body (e.g. in
// logs or stats).
func Retryable(c Code) bool {
	return retryableFor(c)
}

// Standard messages, reused verbatim across the gating middleware so
// tests can assert on exact wording.
const (
	MsgInvalidMacaroon  = "Invalid macaroon"
	MsgInvalidSignature = "Invalid macaroon signature"
	MsgInvalidPreimage  = "Invalid preimage — does not match payment hash"
	MsgMacaroonExpired  = "Macaroon expired"
	MsgEndpointMismatch = "Endpoint mismatch"
	MsgMethodMismatch   = "Method mismatch"
	MsgIPMismatch       = "IP mismatch"
	MsgMalformedCaveat  = "malformed caveat"
)

// WalletErrorMessage formats the wallet-error body message, carrying the
// underlying cause verbatim as `Toll booth error: <msg>`.
func WalletErrorMessage(cause error) string {
	return "Toll booth error: " + cause.Error()
}
