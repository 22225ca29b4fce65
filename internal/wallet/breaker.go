package wallet

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit breaker wrapping a Wallet's network
// calls.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig is a conservative starting point: trip after 5
// consecutive failures, stay open for 30s, allow 1 probe request when
// half-open.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// WithBreaker wraps w so that CreateInvoice calls trip a circuit breaker
// under sustained wallet failure, failing fast instead of piling up
// slow/failing calls against an unhealthy wallet backend. WaitForPayment
// and PayInvoice pass through unwrapped: the payment watcher already
// carries its own timeout, and tripping the same breaker on long
// legitimate waits would be indistinguishable from wallet failure.
func WithBreaker(w Wallet, cfg BreakerConfig) Wallet {
	settings := gobreaker.Settings{
		Name:        "wallet",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
	}
	return &breakerWallet{inner: w, breaker: gobreaker.NewCircuitBreaker(settings)}
}

type breakerWallet struct {
	inner   Wallet
	breaker *gobreaker.CircuitBreaker
}

var _ Wallet = (*breakerWallet)(nil)

func (b *breakerWallet) CreateInvoice(ctx context.Context, p CreateInvoiceParams) (InvoiceHandle, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.CreateInvoice(ctx, p)
	})
	if err != nil {
		return InvoiceHandle{}, err
	}
	return result.(InvoiceHandle), nil
}

func (b *breakerWallet) WaitForPayment(ctx context.Context, paymentHash string, timeout time.Duration) (PaymentStatus, error) {
	return b.inner.WaitForPayment(ctx, paymentHash, timeout)
}

func (b *breakerWallet) PayInvoice(ctx context.Context, bolt11 string) (string, error) {
	return b.inner.PayInvoice(ctx, bolt11)
}
