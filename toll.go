// Package toll implements a per-request HTTP payment gate following the
// L402 protocol: requests without proof of payment receive a 402
// challenge carrying a freshly minted Lightning invoice and a macaroon
// bound to its payment hash; a retry presenting the macaroon and the
// invoice's preimage is cryptographically admitted without any
// server-side lookup.
package toll

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeletor/lightning-toll/internal/clock"
	"github.com/jeletor/lightning-toll/internal/lifecycle"
	"github.com/jeletor/lightning-toll/internal/replay"
	"github.com/jeletor/lightning-toll/internal/stats"
	"github.com/jeletor/lightning-toll/internal/wallet"
)

// Opts configures a toll booth. Wallet and Secret are required; every
// other field has a documented default.
type Opts struct {
	// Wallet is the Lightning wallet the booth mints invoices against.
	Wallet wallet.Wallet
	// Secret is the macaroon signing key. At least 32 random bytes is
	// recommended; a short or predictable secret lets an attacker forge
	// credentials.
	Secret []byte

	// DefaultSats is the price applied to a route that configures
	// neither Sats nor Price. Defaults to 10.
	DefaultSats int64
	// InvoiceExpiry bounds both the invoice's requested expiry and the
	// payment watcher's wait timeout. Defaults to 300s.
	InvoiceExpiry time.Duration
	// MacaroonExpiry sets the expires_at caveat on minted credentials.
	// Defaults to 3600s.
	MacaroonExpiry time.Duration

	// BindEndpoint, BindMethod, and BindIP each bind the corresponding
	// request dimension into minted macaroons as both a caveat and a
	// verify-time requirement. nil means "use the default": true for
	// BindEndpoint and BindMethod, false for BindIP (client IPs behind
	// NAT or proxies are unreliable binding material). A pointer (rather
	// than a plain bool) is what lets the zero value mean "unset" instead
	// of colliding with an explicit false.
	BindEndpoint *bool
	BindMethod   *bool
	BindIP       *bool

	// OnPayment, if set, is invoked once an issued invoice settles,
	// independent of whether the client ever retries the gated request.
	OnPayment func(PaymentEvent)

	// ReplayCacheSize and ReplayCacheTTL enable an optional server-side
	// seen-set rejecting a second admission of the same payment hash.
	// Zero (the default) disables tracking: a macaroon's expires_at
	// caveat is the only bound on reuse.
	ReplayCacheSize int
	ReplayCacheTTL  time.Duration

	// Logger receives structured diagnostics. Defaults to a disabled
	// logger.
	Logger zerolog.Logger
	// Clock is swappable for deterministic tests. Defaults to the real
	// wall clock.
	Clock clock.Clock
}

// Toll is a configured payment gate factory. Create one with New, derive
// per-route middleware with Route, and call Close on shutdown.
type Toll struct {
	opts Opts
	clk  clock.Clock
	log  zerolog.Logger

	stats  *stats.Recorder
	replay *replay.Store

	lifecycle *lifecycle.Manager
	watchCtx  context.Context
	cancel    context.CancelFunc
}

// New constructs a Toll. A missing Wallet or Secret is a programmer
// error and panics immediately rather than surfacing per-request —
// a misconfigured booth must never silently admit unpaid traffic.
func New(opts Opts) *Toll {
	if opts.Wallet == nil {
		panic("toll: Opts.Wallet is required")
	}
	if len(opts.Secret) == 0 {
		panic("toll: Opts.Secret is required")
	}

	if opts.DefaultSats == 0 {
		opts.DefaultSats = 10
	}
	if opts.InvoiceExpiry == 0 {
		opts.InvoiceExpiry = 300 * time.Second
	}
	if opts.MacaroonExpiry == 0 {
		opts.MacaroonExpiry = 3600 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.BindEndpoint == nil {
		opts.BindEndpoint = boolPtr(true)
	}
	if opts.BindMethod == nil {
		opts.BindMethod = boolPtr(true)
	}
	if opts.BindIP == nil {
		opts.BindIP = boolPtr(false)
	}

	ctx, cancel := context.WithCancel(context.Background())

	t := &Toll{
		opts:      opts,
		clk:       opts.Clock,
		log:       opts.Logger,
		stats:     stats.New(opts.Clock),
		replay:    replay.New(opts.ReplayCacheSize, opts.ReplayCacheTTL),
		lifecycle: lifecycle.NewManager(opts.Logger),
		watchCtx:  ctx,
		cancel:    cancel,
	}
	t.lifecycle.RegisterFunc("watcher-context", func() error {
		cancel()
		return nil
	})
	return t
}

func boolPtr(b bool) *bool { return &b }

// Stats returns a point-in-time snapshot of accumulated toll statistics.
func (t *Toll) Stats() stats.Snapshot {
	return t.stats.Snapshot()
}

// Close cancels all in-flight payment watchers and stops every route's
// free-tier sweeper, in LIFO order of registration.
func (t *Toll) Close() error {
	return t.lifecycle.Close()
}
