package toll

import (
	"fmt"
	"net/http"

	"github.com/jeletor/lightning-toll/internal/freetier"
	"github.com/jeletor/lightning-toll/internal/l402"
	"github.com/jeletor/lightning-toll/internal/macaroon"
	"github.com/jeletor/lightning-toll/internal/preimage"
	"github.com/jeletor/lightning-toll/internal/tollerrors"
	"github.com/jeletor/lightning-toll/internal/wallet"
	"github.com/jeletor/lightning-toll/internal/watcher"
)

// RouteOpts configures one gated route. Price takes precedence over
// Sats; Sats takes precedence over the booth's DefaultSats. Description
// works the same way against DescriptionFunc/Description.
type RouteOpts struct {
	Sats  int64
	Price func(*http.Request) int64

	Description     string
	DescriptionFunc func(*http.Request) string

	FreeRequests int
	// FreeWindow accepts a Go duration string ("1h", "30m") or a bare
	// millisecond integer. Empty or unparseable defaults to 1h.
	FreeWindow string
}

func (ro RouteOpts) resolveSats(r *http.Request, defaultSats int64) int64 {
	if ro.Price != nil {
		return ro.Price(r)
	}
	if ro.Sats != 0 {
		return ro.Sats
	}
	return defaultSats
}

func (ro RouteOpts) resolveDescription(r *http.Request) string {
	if ro.DescriptionFunc != nil {
		return ro.DescriptionFunc(r)
	}
	if ro.Description != "" {
		return ro.Description
	}
	return fmt.Sprintf("API access: %s %s", r.Method, r.URL.Path)
}

// Route builds the middleware for one route: it wraps an http.Handler so
// that requests are admitted as paid, admitted as free, or challenged
// with a 402, per the state machine this package implements. Each call
// creates its own free-tier accountant and sweeper, registered with the
// Toll's shutdown sequence.
func (t *Toll) Route(routeOpts RouteOpts) func(http.Handler) http.Handler {
	accountant := freetier.New(t.clk, routeOpts.FreeRequests, freetier.ParseWindow(routeOpts.FreeWindow))
	stopSweep := accountant.StartSweeper()
	t.lifecycle.RegisterFunc("freetier-sweeper", func() error {
		stopSweep()
		return nil
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.serve(w, r, next, routeOpts, accountant)
		})
	}
}

func (t *Toll) serve(w http.ResponseWriter, r *http.Request, next http.Handler, routeOpts RouteOpts, accountant *freetier.Accountant) {
	clientID := clientIDFor(r)
	endpoint := r.URL.Path

	if creds, ok := l402.ParseAuthorization(r.Header.Get("Authorization")); ok {
		t.admitWithCredentials(w, r, next, routeOpts, creds, clientID, endpoint)
		return
	}

	if accountant.Admit(clientID) {
		t.stats.RecordFree(endpoint)
		admission := Admission{Free: true, ClientID: clientID}
		next.ServeHTTP(w, r.WithContext(withAdmission(r.Context(), admission)))
		return
	}

	t.challenge(w, r, routeOpts, clientID, endpoint)
}

func (t *Toll) admitWithCredentials(w http.ResponseWriter, r *http.Request, next http.Handler, routeOpts RouteOpts, creds l402.Credentials, clientID, endpoint string) {
	mac, ok := macaroon.Decode(creds.MacaroonRaw)
	if !ok {
		tollerrors.Write(w, tollerrors.CodeInvalidMacaroon, tollerrors.MsgInvalidMacaroon)
		return
	}

	ctx := macaroon.VerifyContext{Now: t.clk.Now()}
	if *t.opts.BindEndpoint {
		ctx.Endpoint = endpoint
	}
	if *t.opts.BindMethod {
		ctx.Method = r.Method
	}
	if *t.opts.BindIP {
		ctx.IP = clientID
	}

	result := macaroon.Verify(t.opts.Secret, mac, ctx)
	if !result.Valid {
		if result.Error == "invalid signature" {
			tollerrors.Write(w, tollerrors.CodeInvalidSignature, tollerrors.MsgInvalidSignature)
			return
		}
		tollerrors.Write(w, tollerrors.CodeCaveatFailed, result.Error)
		return
	}

	if !preimage.Verify(creds.PreimageHex, result.PaymentHash) {
		tollerrors.Write(w, tollerrors.CodeInvalidPreimage, tollerrors.MsgInvalidPreimage)
		return
	}

	if t.replay.Enabled() && t.replay.Seen(result.PaymentHash) {
		tollerrors.Write(w, tollerrors.CodeInvalidMacaroon, "Macaroon already used")
		return
	}

	amountSats := routeOpts.resolveSats(r, t.opts.DefaultSats)
	t.stats.RecordPaid(endpoint, clientID, result.PaymentHash, amountSats)

	admission := Admission{
		Paid:        true,
		PaymentHash: result.PaymentHash,
		AmountSats:  amountSats,
		ClientID:    clientID,
	}
	next.ServeHTTP(w, r.WithContext(withAdmission(r.Context(), admission)))
}

func (t *Toll) challenge(w http.ResponseWriter, r *http.Request, routeOpts RouteOpts, clientID, endpoint string) {
	amountSats := routeOpts.resolveSats(r, t.opts.DefaultSats)
	description := routeOpts.resolveDescription(r)

	handle, err := t.opts.Wallet.CreateInvoice(r.Context(), wallet.CreateInvoiceParams{
		AmountSats:  amountSats,
		Description: description,
		Expiry:      t.opts.InvoiceExpiry,
	})
	if err != nil {
		tollerrors.Write(w, tollerrors.CodeWalletError, tollerrors.WalletErrorMessage(err))
		return
	}

	expiresAt := t.clk.Now().Add(t.opts.MacaroonExpiry)
	mintParams := macaroon.MintParams{
		PaymentHash: handle.PaymentHash,
		ExpiresAt:   &expiresAt,
	}
	if *t.opts.BindEndpoint {
		mintParams.Endpoint = endpoint
	}
	if *t.opts.BindMethod {
		mintParams.Method = r.Method
	}
	if *t.opts.BindIP {
		mintParams.IP = clientID
	}
	mac := macaroon.Mint(t.opts.Secret, mintParams)

	l402.WriteChallenge(w, l402.Challenge{
		Invoice:     handle.Invoice,
		Macaroon:    mac.Serialize(),
		PaymentHash: handle.PaymentHash,
		AmountSats:  amountSats,
		Description: description,
	})

	if t.opts.OnPayment != nil {
		onPayment := t.opts.OnPayment
		watcher.Watch(t.watchCtx, t.log, t.opts.Wallet, handle.PaymentHash, amountSats, endpoint, t.opts.InvoiceExpiry, func(e watcher.PaymentEvent) {
			onPayment(PaymentEvent{
				PaymentHash: e.PaymentHash,
				Preimage:    e.Preimage,
				AmountSats:  e.AmountSats,
				Endpoint:    e.Endpoint,
				ClientID:    clientID,
				SettledAt:   e.SettledAt,
			})
		})
	}
}
