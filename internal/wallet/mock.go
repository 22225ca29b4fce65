package wallet

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mock is an in-memory Wallet good enough to drive the demo host and unit
// tests end to end: CreateInvoice mints a real preimage/hash pair and a
// placeholder bolt11 string; Settle (test-only) reveals the preimage to
// simulate out-of-band payment; WaitForPayment blocks until Settle has been
// called or the timeout elapses.
type Mock struct {
	mu       sync.Mutex
	invoices map[string]*mockInvoice
}

type mockInvoice struct {
	preimage  string
	settled   bool
	settledAt time.Time
	waiters   []chan PaymentStatus
}

// NewMock creates an empty Mock wallet.
func NewMock() *Mock {
	return &Mock{invoices: make(map[string]*mockInvoice)}
}

var _ Wallet = (*Mock)(nil)

// CreateInvoice mints a fresh preimage, derives its payment hash, and
// returns a placeholder bolt11 string carrying the amount and an invoice
// id for readability in logs/dashboards.
func (m *Mock) CreateInvoice(ctx context.Context, p CreateInvoiceParams) (InvoiceHandle, error) {
	preimageBytes := make([]byte, 32)
	if _, err := rand.Read(preimageBytes); err != nil {
		return InvoiceHandle{}, fmt.Errorf("wallet: failed to generate preimage: %w", err)
	}
	preimage := hex.EncodeToString(preimageBytes)
	hash := sha256.Sum256(preimageBytes)
	paymentHash := hex.EncodeToString(hash[:])

	invoiceID := uuid.NewString()
	bolt11 := fmt.Sprintf("lnmock1%s_%dsats_%s", invoiceID, p.AmountSats, paymentHash[:16])

	m.mu.Lock()
	m.invoices[paymentHash] = &mockInvoice{preimage: preimage}
	m.mu.Unlock()

	return InvoiceHandle{Invoice: bolt11, PaymentHash: paymentHash}, nil
}

// Settle simulates the invoice being paid out of band, waking any
// in-flight WaitForPayment calls. It is exported for tests and the demo
// host's own "pay" endpoint — a real wallet adapter has no equivalent
// method, since settlement happens on the Lightning network itself.
func (m *Mock) Settle(paymentHash string) (preimageHex string, ok bool) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	inv, found := m.invoices[paymentHash]
	if !found {
		return "", false
	}
	if !inv.settled {
		inv.settled = true
		inv.settledAt = now
		for _, ch := range inv.waiters {
			ch <- PaymentStatus{Paid: true, Preimage: inv.preimage, SettledAt: now}
		}
		inv.waiters = nil
	}
	return inv.preimage, true
}

// WaitForPayment blocks until Settle(paymentHash) is called or timeout
// elapses.
func (m *Mock) WaitForPayment(ctx context.Context, paymentHash string, timeout time.Duration) (PaymentStatus, error) {
	m.mu.Lock()
	inv, found := m.invoices[paymentHash]
	if !found {
		m.mu.Unlock()
		return PaymentStatus{}, fmt.Errorf("wallet: unknown payment hash %s", paymentHash)
	}
	if inv.settled {
		status := PaymentStatus{Paid: true, Preimage: inv.preimage, SettledAt: inv.settledAt}
		m.mu.Unlock()
		return status, nil
	}
	ch := make(chan PaymentStatus, 1)
	inv.waiters = append(inv.waiters, ch)
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case status := <-ch:
		return status, nil
	case <-timer.C:
		return PaymentStatus{Paid: false}, nil
	case <-ctx.Done():
		return PaymentStatus{}, ctx.Err()
	}
}

// PayInvoice is supported for the Mock so the demo host can double as a
// conformant client-side auto-pay helper; it parses the payment hash back
// out of the placeholder bolt11 format CreateInvoice produces.
func (m *Mock) PayInvoice(ctx context.Context, bolt11 string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, inv := range m.invoices {
		if len(hash) >= 16 && len(bolt11) >= 16 && bolt11[len(bolt11)-16:] == hash[:16] {
			return inv.preimage, nil
		}
	}
	return "", fmt.Errorf("wallet: no invoice matches %s", bolt11)
}
