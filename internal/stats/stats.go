// Package stats tracks revenue, request, and payer counters per route and
// exposes them as a JSON dashboard snapshot and a Prometheus text page.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/jeletor/lightning-toll/internal/clock"
)

const recentPaymentsCap = 100

// EndpointStats is the per-route breakdown inside a Snapshot.
type EndpointStats struct {
	RevenueSats int64 `json:"revenue"`
	Requests    int64 `json:"requests"`
	Paid        int64 `json:"paid"`
	Free        int64 `json:"free"`
}

// Payment is one entry in the recent-payments ring buffer.
type Payment struct {
	Endpoint    string    `json:"endpoint"`
	AmountSats  int64     `json:"amountSats"`
	PayerID     string    `json:"payerId"`
	PaymentHash string    `json:"paymentHash"`
	Timestamp   time.Time `json:"timestamp"`
}

// Snapshot is an immutable, deep copy of the recorder's state at a point
// in time, safe for a caller to hold onto or mutate without affecting the
// recorder.
type Snapshot struct {
	TotalRevenueSats int64                    `json:"totalRevenue"`
	TotalRequests    int64                    `json:"totalRequests"`
	TotalPaid        int64                    `json:"totalPaid"`
	UniquePayers     int64                    `json:"uniquePayers"`
	Endpoints        map[string]EndpointStats `json:"endpoints"`
	RecentPayments   []Payment                `json:"recentPayments"`
}

// Recorder accumulates toll events across every route sharing one toll
// factory. All mutation goes through a single mutex: the counters move
// together and a reader must never observe them mid-update.
type Recorder struct {
	clk clock.Clock

	mu             sync.Mutex
	totalRevenue   int64
	totalRequests  int64
	totalPaid      int64
	payers         map[string]struct{}
	endpoints      map[string]*EndpointStats
	recentPayments []Payment
}

// New creates an empty Recorder.
func New(clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Recorder{
		clk:       clk,
		payers:    make(map[string]struct{}),
		endpoints: make(map[string]*EndpointStats),
	}
}

func (r *Recorder) endpoint(path string) *EndpointStats {
	e, ok := r.endpoints[path]
	if !ok {
		e = &EndpointStats{}
		r.endpoints[path] = e
	}
	return e
}

// RecordPaid records a paid admission. A non-positive amountSats (which a
// route's Price function can return) is counted as a free request for the
// endpoint: only the request counters and the endpoint's free count move.
func (r *Recorder) RecordPaid(endpoint, payerID, paymentHash string, amountSats int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalRequests++
	e := r.endpoint(endpoint)
	e.Requests++

	if amountSats > 0 {
		r.totalPaid++
		e.Paid++
		r.totalRevenue += amountSats
		e.RevenueSats += amountSats
		r.payers[payerID] = struct{}{}

		r.recentPayments = append(r.recentPayments, Payment{
			Endpoint:    endpoint,
			AmountSats:  amountSats,
			PayerID:     payerID,
			PaymentHash: paymentHash,
			Timestamp:   r.clk.Now(),
		})
		if len(r.recentPayments) > recentPaymentsCap {
			r.recentPayments = r.recentPayments[len(r.recentPayments)-recentPaymentsCap:]
		}
	}
}

// RecordFree records a free-tier admission.
func (r *Recorder) RecordFree(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalRequests++
	e := r.endpoint(endpoint)
	e.Requests++
	e.Free++
}

// Snapshot returns a deep-enough copy of the current state: maps and the
// payments slice are cloned so a caller can mutate or retain the result
// without any risk of racing future writes.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	endpoints := make(map[string]EndpointStats, len(r.endpoints))
	for path, e := range r.endpoints {
		endpoints[path] = *e
	}

	payments := make([]Payment, len(r.recentPayments))
	copy(payments, r.recentPayments)

	return Snapshot{
		TotalRevenueSats: r.totalRevenue,
		TotalRequests:    r.totalRequests,
		TotalPaid:        r.totalPaid,
		UniquePayers:     int64(len(r.payers)),
		Endpoints:        endpoints,
		RecentPayments:   payments,
	}
}

// DashboardPayments returns the Snapshot's recentPayments newest-first,
// trimmed to at most max entries.
func DashboardPayments(s Snapshot, max int) []Payment {
	out := make([]Payment, len(s.RecentPayments))
	copy(out, s.RecentPayments)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// PaymentsPerMinute computes a rolling rate from payments observed within
// the last 60 seconds of now.
func PaymentsPerMinute(s Snapshot, now time.Time) float64 {
	count := 0
	cutoff := now.Add(-60 * time.Second)
	for _, p := range s.RecentPayments {
		if p.Timestamp.After(cutoff) {
			count++
		}
	}
	return float64(count)
}

// AveragePaymentSats is Σrevenue/Σpaid, valid only when TotalPaid > 0.
func AveragePaymentSats(s Snapshot) (avg float64, ok bool) {
	if s.TotalPaid == 0 {
		return 0, false
	}
	return float64(s.TotalRevenueSats) / float64(s.TotalPaid), true
}
