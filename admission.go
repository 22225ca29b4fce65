package toll

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

type admissionKey struct{}

// Admission is the per-request annotation the gating middleware attaches
// to a request's context once it decides to let the request through,
// either as paid or as a free-tier grant.
type Admission struct {
	Paid        bool
	Free        bool
	PaymentHash string
	AmountSats  int64
	ClientID    string
}

func withAdmission(ctx context.Context, a Admission) context.Context {
	return context.WithValue(ctx, admissionKey{}, a)
}

// FromRequest retrieves the Admission a downstream handler was admitted
// under. ok is false if called on a request that never passed through a
// gating middleware.
func FromRequest(r *http.Request) (Admission, bool) {
	a, ok := r.Context().Value(admissionKey{}).(Admission)
	return a, ok
}

// PaymentEvent is delivered to an Opts.OnPayment callback when a
// previously-issued invoice settles, independent of whether the paying
// client ever retries the original request.
type PaymentEvent struct {
	PaymentHash string
	Preimage    string
	AmountSats  int64
	Endpoint    string
	ClientID    string
	SettledAt   time.Time
}

// clientIDFor derives a stable-enough client identity: the first token of
// X-Forwarded-For if present, else the request's peer address, else
// "unknown". This governs both free-tier accounting and the optional ip
// caveat — it is not an authentication mechanism.
func clientIDFor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if first != "" {
			return first
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}
