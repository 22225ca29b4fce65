// Package wallet defines the narrow contract the toll booth depends on for
// Lightning invoice creation and settlement, plus a circuit-breaker
// decorator that wraps any implementation.
package wallet

import (
	"context"
	"errors"
	"time"
)

// InvoiceHandle is the opaque reference the wallet hands back for a newly
// created invoice. The toll booth never interprets Invoice beyond passing
// it to the client.
type InvoiceHandle struct {
	Invoice     string
	PaymentHash string // lowercase hex, 32 bytes
}

// CreateInvoiceParams describes the invoice to mint.
type CreateInvoiceParams struct {
	AmountSats  int64
	Description string
	Expiry      time.Duration
}

// PaymentStatus is the outcome of waiting for an invoice to settle.
type PaymentStatus struct {
	Paid      bool
	Preimage  string // lowercase hex, populated iff Paid
	SettledAt time.Time
}

// Wallet is the Lightning wallet contract the gating middleware and the
// payment watcher depend on. NWC connection strings and in-process wallet
// objects both satisfy it identically — the core never special-cases
// construction mode.
type Wallet interface {
	// CreateInvoice mints a new invoice. Any failure is surfaced to the
	// caller as a 500 "Toll booth error: …".
	CreateInvoice(ctx context.Context, p CreateInvoiceParams) (InvoiceHandle, error)

	// WaitForPayment blocks (up to timeout) until paymentHash settles or
	// the wait times out. It is used only by the payment watcher
	// (component F) — never on the request admission path.
	WaitForPayment(ctx context.Context, paymentHash string, timeout time.Duration) (PaymentStatus, error)

	// PayInvoice pays a bolt11 invoice. Used only by the client-side
	// auto-pay helper, never by the gate itself.
	PayInvoice(ctx context.Context, bolt11 string) (preimageHex string, err error)
}

// ErrNotSupported is returned by PayInvoice on wallet adapters that are
// receive-only (e.g. a pure invoice-issuing NWC connection).
var ErrNotSupported = errors.New("wallet: operation not supported by this adapter")
