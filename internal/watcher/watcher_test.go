package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeletor/lightning-toll/internal/wallet"
)

func TestWatchInvokesOnPaymentAfterSettle(t *testing.T) {
	w := wallet.NewMock()
	handle, err := w.CreateInvoice(context.Background(), wallet.CreateInvoiceParams{AmountSats: 50})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	var mu sync.Mutex
	var got PaymentEvent
	done := make(chan struct{})

	Watch(context.Background(), zerolog.Nop(), w, handle.PaymentHash, 50, "/api/joke", time.Second, func(e PaymentEvent) {
		mu.Lock()
		got = e
		mu.Unlock()
		close(done)
	})

	time.Sleep(10 * time.Millisecond)
	preimage, _ := w.Settle(handle.PaymentHash)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for onPayment to fire")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.PaymentHash != handle.PaymentHash || got.Preimage != preimage || got.AmountSats != 50 || got.Endpoint != "/api/joke" {
		t.Fatalf("unexpected payment event: %+v", got)
	}
}

func TestWatchNeverFiresOnTimeout(t *testing.T) {
	w := wallet.NewMock()
	handle, _ := w.CreateInvoice(context.Background(), wallet.CreateInvoiceParams{AmountSats: 10})

	fired := make(chan struct{}, 1)
	Watch(context.Background(), zerolog.Nop(), w, handle.PaymentHash, 10, "/api/joke", 20*time.Millisecond, func(e PaymentEvent) {
		fired <- struct{}{}
	})

	select {
	case <-fired:
		t.Fatal("expected onPayment to never fire when the invoice is never settled")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchNilCallbackIsNoop(t *testing.T) {
	w := wallet.NewMock()
	handle, _ := w.CreateInvoice(context.Background(), wallet.CreateInvoiceParams{AmountSats: 10})
	Watch(context.Background(), zerolog.Nop(), w, handle.PaymentHash, 10, "/api/joke", time.Second, nil)
}

func TestWatchCanceledContextAbandonsWatch(t *testing.T) {
	w := wallet.NewMock()
	handle, _ := w.CreateInvoice(context.Background(), wallet.CreateInvoiceParams{AmountSats: 10})

	ctx, cancel := context.WithCancel(context.Background())
	fired := make(chan struct{}, 1)
	Watch(ctx, zerolog.Nop(), w, handle.PaymentHash, 10, "/api/joke", time.Second, func(e PaymentEvent) {
		fired <- struct{}{}
	})
	cancel()

	time.Sleep(10 * time.Millisecond)
	w.Settle(handle.PaymentHash)

	select {
	case <-fired:
		t.Fatal("expected a canceled watch to never invoke onPayment")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatchRecoversPanicInCallback(t *testing.T) {
	w := wallet.NewMock()
	handle, _ := w.CreateInvoice(context.Background(), wallet.CreateInvoiceParams{AmountSats: 10})

	done := make(chan struct{})
	Watch(context.Background(), zerolog.Nop(), w, handle.PaymentHash, 10, "/api/joke", time.Second, func(e PaymentEvent) {
		defer close(done)
		panic("boom")
	})

	time.Sleep(10 * time.Millisecond)
	w.Settle(handle.PaymentHash)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for panicking callback to run")
	}
}
