// Package l402 formats the L402 challenge (WWW-Authenticate header + JSON
// body) and parses the Authorization header a paying client retries with.
//
// This is an HTTP-native wire format rather than gopkg.in's macaroon.v2
// format over gRPC metadata: a single Authorization header carrying
// "L402 <macaroon>:<preimage>".
package l402

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Credentials is the parsed (macaroon, preimage) pair extracted from an
// Authorization header.
type Credentials struct {
	MacaroonRaw string
	PreimageHex string
}

// ParseAuthorization extracts L402 credentials from a raw Authorization
// header value. It accepts "L402 <mac>:<preimage>" case-insensitively on
// the scheme token and case-sensitively on the payload, splitting on the
// first colon; both halves must be non-empty. Any deviation yields
// (Credentials{}, false) — deliberately strict, to avoid downgrade to an
// unbound credential format.
func ParseAuthorization(header string) (Credentials, bool) {
	header = strings.TrimSpace(header)
	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "L402") {
		return Credentials{}, false
	}

	mac, preimage, ok := strings.Cut(rest, ":")
	if !ok || mac == "" || preimage == "" {
		return Credentials{}, false
	}

	return Credentials{MacaroonRaw: mac, PreimageHex: preimage}, true
}

// Challenge is the information needed to emit a 402 response: the invoice,
// the serialized macaroon bound to it, and the pricing/description context.
type Challenge struct {
	Invoice     string
	Macaroon    string
	PaymentHash string
	AmountSats  int64
	Description string
}

// HeaderValue formats the WWW-Authenticate header value:
// `L402 invoice="<bolt11>", macaroon="<base64url>"`.
func (c Challenge) HeaderValue() string {
	return fmt.Sprintf(`L402 invoice="%s", macaroon="%s"`, c.Invoice, c.Macaroon)
}

// instructions mirrors the fixed three-step client flow embedded in the
// challenge body.
type instructions struct {
	Step1 string `json:"step1"`
	Step2 string `json:"step2"`
	Step3 string `json:"step3"`
}

// Body is the JSON shape of the 402 challenge body.
type Body struct {
	Status      int          `json:"status"`
	Message     string       `json:"message"`
	PaymentHash string       `json:"paymentHash"`
	Invoice     string       `json:"invoice"`
	Macaroon    string       `json:"macaroon"`
	AmountSats  int64        `json:"amountSats"`
	Description *string      `json:"description"`
	Protocol    string       `json:"protocol"`
	Instruction instructions `json:"instructions"`
}

// WriteChallenge writes the full 402 response: header, status, and JSON
// body. The challenge carries a fresh invoice for this client, so it is
// marked Cache-Control: no-store.
func WriteChallenge(w http.ResponseWriter, c Challenge) {
	w.Header().Set("WWW-Authenticate", c.HeaderValue())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusPaymentRequired)

	var desc *string
	if c.Description != "" {
		desc = &c.Description
	}

	body := Body{
		Status:      http.StatusPaymentRequired,
		Message:     "Payment Required",
		PaymentHash: c.PaymentHash,
		Invoice:     c.Invoice,
		Macaroon:    c.Macaroon,
		AmountSats:  c.AmountSats,
		Description: desc,
		Protocol:    "L402",
		Instruction: instructions{
			Step1: fmt.Sprintf("Pay the invoice to obtain the preimage for payment hash %s.", c.PaymentHash),
			Step2: "Retry the original request with header: Authorization: L402 <macaroon>:<preimage>",
			Step3: "Keep the macaroon and preimage for reuse until the credential's expires_at caveat lapses.",
		},
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}
