// Package watcher runs the background task that observes a minted
// invoice settle and invokes an operator-supplied callback, independent
// of whether any client ever retries the gated request.
package watcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeletor/lightning-toll/internal/wallet"
)

// PaymentEvent is what a watcher reports to an OnPayment callback.
type PaymentEvent struct {
	PaymentHash string
	Preimage    string
	AmountSats  int64
	Endpoint    string
	SettledAt   time.Time
}

// OnPayment is invoked once per settled invoice. It runs on the watcher's
// own goroutine — callbacks must not block the caller that started the
// watch.
type OnPayment func(PaymentEvent)

// Watch spawns a detached goroutine that waits (up to timeout) for
// paymentHash to settle via w, then invokes onPayment if it did. ctx
// governs the wait: canceling it (e.g. via a shutdown
// coordinator) abandons the watch without invoking onPayment.
//
// A panic inside onPayment is recovered and logged rather than crashing
// the process: invoice issuance already happened and the HTTP response
// for it may already be in flight, so a misbehaving callback must not
// take down the server.
func Watch(ctx context.Context, log zerolog.Logger, w wallet.Wallet, paymentHash string, amountSats int64, endpoint string, timeout time.Duration, onPayment OnPayment) {
	if onPayment == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("payment_hash", paymentHash).
					Msg("watcher: onPayment callback panicked")
			}
		}()

		status, err := w.WaitForPayment(ctx, paymentHash, timeout)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().
					Err(err).
					Str("payment_hash", paymentHash).
					Msg("watcher: wait for payment failed")
			}
			return
		}
		if !status.Paid {
			return
		}

		onPayment(PaymentEvent{
			PaymentHash: paymentHash,
			Preimage:    status.Preimage,
			AmountSats:  amountSats,
			Endpoint:    endpoint,
			SettledAt:   status.SettledAt,
		})
	}()
}
