package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jeletor/lightning-toll/internal/preimage"
)

func TestMockCreateInvoiceProducesVerifiablePair(t *testing.T) {
	m := NewMock()
	handle, err := m.CreateInvoice(context.Background(), CreateInvoiceParams{AmountSats: 100, Description: "joke"})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if handle.Invoice == "" || handle.PaymentHash == "" {
		t.Fatal("expected non-empty invoice and payment hash")
	}
	preimageHex, ok := m.Settle(handle.PaymentHash)
	if !ok || !preimage.Verify(preimageHex, handle.PaymentHash) {
		t.Fatal("expected the invoice's preimage to verify against its payment hash")
	}
}

func TestMockWaitForPaymentUnsettledTimesOut(t *testing.T) {
	m := NewMock()
	handle, _ := m.CreateInvoice(context.Background(), CreateInvoiceParams{AmountSats: 10})

	status, err := m.WaitForPayment(context.Background(), handle.PaymentHash, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForPayment: %v", err)
	}
	if status.Paid {
		t.Fatal("expected unsettled invoice to report unpaid after timeout")
	}
}

func TestMockSettleWakesWaiter(t *testing.T) {
	m := NewMock()
	handle, _ := m.CreateInvoice(context.Background(), CreateInvoiceParams{AmountSats: 10})

	var wg sync.WaitGroup
	var status PaymentStatus
	var waitErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		status, waitErr = m.WaitForPayment(context.Background(), handle.PaymentHash, time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	preimage, ok := m.Settle(handle.PaymentHash)
	if !ok {
		t.Fatal("expected Settle on a known payment hash to succeed")
	}
	wg.Wait()

	if waitErr != nil {
		t.Fatalf("WaitForPayment: %v", waitErr)
	}
	if !status.Paid || status.Preimage != preimage {
		t.Fatalf("expected waiter to observe payment with matching preimage, got %+v", status)
	}
}

func TestMockSettleUnknownHashFails(t *testing.T) {
	m := NewMock()
	if _, ok := m.Settle("0000"); ok {
		t.Fatal("expected Settle on an unknown payment hash to fail")
	}
}

func TestMockSettleIsIdempotent(t *testing.T) {
	m := NewMock()
	handle, _ := m.CreateInvoice(context.Background(), CreateInvoiceParams{AmountSats: 10})

	first, ok := m.Settle(handle.PaymentHash)
	if !ok {
		t.Fatal("expected first Settle to succeed")
	}
	second, ok := m.Settle(handle.PaymentHash)
	if !ok || second != first {
		t.Fatal("expected second Settle to be a no-op returning the same preimage")
	}
}

func TestMockWaitForPaymentAlreadySettled(t *testing.T) {
	m := NewMock()
	handle, _ := m.CreateInvoice(context.Background(), CreateInvoiceParams{AmountSats: 10})
	m.Settle(handle.PaymentHash)

	status, err := m.WaitForPayment(context.Background(), handle.PaymentHash, time.Second)
	if err != nil {
		t.Fatalf("WaitForPayment: %v", err)
	}
	if !status.Paid {
		t.Fatal("expected already-settled invoice to report paid immediately")
	}
}

func TestMockWaitForPaymentUnknownHash(t *testing.T) {
	m := NewMock()
	if _, err := m.WaitForPayment(context.Background(), "unknown", time.Second); err == nil {
		t.Fatal("expected an error for an unknown payment hash")
	}
}

func TestMockPayInvoiceRoundTrip(t *testing.T) {
	m := NewMock()
	handle, _ := m.CreateInvoice(context.Background(), CreateInvoiceParams{AmountSats: 10})

	preimageHex, err := m.PayInvoice(context.Background(), handle.Invoice)
	if err != nil {
		t.Fatalf("PayInvoice: %v", err)
	}
	if !preimage.Verify(preimageHex, handle.PaymentHash) {
		t.Fatal("expected PayInvoice's preimage to verify against the invoice's payment hash")
	}
}

func TestMockPayInvoiceUnknownBolt11(t *testing.T) {
	m := NewMock()
	if _, err := m.PayInvoice(context.Background(), "lnmockunknown"); err == nil {
		t.Fatal("expected an error for an unrecognized bolt11 string")
	}
}

func TestFromURLRejectsBadScheme(t *testing.T) {
	if _, err := FromURL("https://example.com"); err == nil {
		t.Fatal("expected non-NWC scheme to be rejected")
	}
}

func TestFromURLRejectsMissingSecret(t *testing.T) {
	if _, err := FromURL("nostr+walletconnect://relay.example.com"); err == nil {
		t.Fatal("expected missing secret to be rejected")
	}
}

func TestFromURLAccepts(t *testing.T) {
	w, err := FromURL("nostr+walletconnect://relay.example.com?secret=abc123")
	if err != nil {
		t.Fatalf("FromURL: %v", err)
	}
	if w == nil {
		t.Fatal("expected a non-nil wallet")
	}
}

func TestFromWalletPassesThrough(t *testing.T) {
	m := NewMock()
	if FromWallet(m) != Wallet(m) {
		t.Fatal("expected FromWallet to return its argument unchanged")
	}
}
