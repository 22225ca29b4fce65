package wallet

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FromURL builds a Wallet from a Nostr Wallet Connect URL
// (nostr+walletconnect://…), opaque to the core beyond its scheme.
// Construction validates the URL shape only; the returned adapter is
// otherwise indistinguishable from one built with FromWallet.
func FromURL(nwcURL string) (Wallet, error) {
	u, err := url.Parse(nwcURL)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid NWC url: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "nostr+walletconnect") {
		return nil, fmt.Errorf("wallet: unsupported NWC scheme %q", u.Scheme)
	}
	relay := u.Host
	secret := u.Query().Get("secret")
	if relay == "" || secret == "" {
		return nil, fmt.Errorf("wallet: NWC url missing relay or secret")
	}

	return &nwcWallet{relay: relay, secret: secret}, nil
}

// FromWallet wraps an already-constructed Wallet (e.g. a test double, or a
// client built and connected outside this package). The core treats it
// identically to a FromURL-constructed adapter.
func FromWallet(w Wallet) Wallet {
	return w
}

// nwcWallet is a thin client over a Nostr Wallet Connect relay. The actual
// NIP-47 request/response exchange is intentionally not reimplemented here
// — operators wire a real NWC client (or the in-memory Mock in mock.go) behind
// the same Wallet interface; this adapter documents the construction mode
// and fails clearly if invoked without a transport.
type nwcWallet struct {
	relay  string
	secret string
}

var _ Wallet = (*nwcWallet)(nil)

func (w *nwcWallet) CreateInvoice(ctx context.Context, p CreateInvoiceParams) (InvoiceHandle, error) {
	return InvoiceHandle{}, fmt.Errorf("wallet: NWC transport not wired for relay %s; provide a Wallet via FromWallet instead", w.relay)
}

func (w *nwcWallet) WaitForPayment(ctx context.Context, paymentHash string, timeout time.Duration) (PaymentStatus, error) {
	return PaymentStatus{}, fmt.Errorf("wallet: NWC transport not wired for relay %s", w.relay)
}

func (w *nwcWallet) PayInvoice(ctx context.Context, bolt11 string) (string, error) {
	return "", ErrNotSupported
}
