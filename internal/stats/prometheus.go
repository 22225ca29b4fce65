package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ContentType is the exact Content-Type header value Prometheus text
// exposition requires.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Collector adapts a Recorder's Snapshot to prometheus.Collector,
// re-deriving every metric value at scrape time rather than keeping a
// parallel set of counters in sync with the Recorder's own bookkeeping.
// Registered against a dedicated registry (never prometheus.DefaultRegisterer)
// so the exposed family set is exactly the lightning_toll_* table and
// nothing else — no Go runtime or process metrics mixed in.
type Collector struct {
	recorder *Recorder
	now      func() time.Time

	revenue         *prometheus.Desc
	requests        *prometheus.Desc
	paidRequests    *prometheus.Desc
	uniquePayers    *prometheus.Desc
	endpointRevenue *prometheus.Desc
	endpointReqs    *prometheus.Desc
	endpointPaid    *prometheus.Desc
	endpointFree    *prometheus.Desc
	paymentsPerMin  *prometheus.Desc
	avgPayment      *prometheus.Desc
}

// NewCollector builds a Collector sampling r. now defaults to time.Now
// when nil; tests supply a fixed clock to make payments_per_minute
// deterministic.
func NewCollector(r *Recorder, now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}
	return &Collector{
		recorder:        r,
		now:             now,
		revenue:         prometheus.NewDesc("lightning_toll_revenue_sats_total", "Total revenue collected, in satoshis.", nil, nil),
		requests:        prometheus.NewDesc("lightning_toll_requests_total", "Total requests admitted (paid or free).", nil, nil),
		paidRequests:    prometheus.NewDesc("lightning_toll_paid_requests_total", "Total requests admitted via payment.", nil, nil),
		uniquePayers:    prometheus.NewDesc("lightning_toll_unique_payers", "Distinct payer identities observed.", nil, nil),
		endpointRevenue: prometheus.NewDesc("lightning_toll_endpoint_revenue_sats", "Revenue collected per endpoint, in satoshis.", []string{"endpoint"}, nil),
		endpointReqs:    prometheus.NewDesc("lightning_toll_endpoint_requests", "Requests admitted per endpoint.", []string{"endpoint"}, nil),
		endpointPaid:    prometheus.NewDesc("lightning_toll_endpoint_paid", "Paid requests admitted per endpoint.", []string{"endpoint"}, nil),
		endpointFree:    prometheus.NewDesc("lightning_toll_endpoint_free", "Free-tier requests admitted per endpoint.", []string{"endpoint"}, nil),
		paymentsPerMin:  prometheus.NewDesc("lightning_toll_payments_per_minute", "Payments observed in the trailing 60s window.", nil, nil),
		avgPayment:      prometheus.NewDesc("lightning_toll_average_payment_sats", "Mean payment size, in satoshis.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.revenue
	ch <- c.requests
	ch <- c.paidRequests
	ch <- c.uniquePayers
	ch <- c.endpointRevenue
	ch <- c.endpointReqs
	ch <- c.endpointPaid
	ch <- c.endpointFree
	ch <- c.paymentsPerMin
	ch <- c.avgPayment
}

// Collect implements prometheus.Collector. average_payment_sats is
// emitted only when at least one payment has settled, so a freshly
// started toll booth never reports a misleading zero average.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.recorder.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.revenue, prometheus.CounterValue, float64(s.TotalRevenueSats))
	ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(s.TotalRequests))
	ch <- prometheus.MustNewConstMetric(c.paidRequests, prometheus.CounterValue, float64(s.TotalPaid))
	ch <- prometheus.MustNewConstMetric(c.uniquePayers, prometheus.GaugeValue, float64(s.UniquePayers))

	for endpoint, e := range s.Endpoints {
		ch <- prometheus.MustNewConstMetric(c.endpointRevenue, prometheus.GaugeValue, float64(e.RevenueSats), endpoint)
		ch <- prometheus.MustNewConstMetric(c.endpointReqs, prometheus.GaugeValue, float64(e.Requests), endpoint)
		ch <- prometheus.MustNewConstMetric(c.endpointPaid, prometheus.GaugeValue, float64(e.Paid), endpoint)
		ch <- prometheus.MustNewConstMetric(c.endpointFree, prometheus.GaugeValue, float64(e.Free), endpoint)
	}

	ch <- prometheus.MustNewConstMetric(c.paymentsPerMin, prometheus.GaugeValue, PaymentsPerMinute(s, c.now()))

	if avg, ok := AveragePaymentSats(s); ok {
		ch <- prometheus.MustNewConstMetric(c.avgPayment, prometheus.GaugeValue, avg)
	}
}

// NewRegistry builds a dedicated prometheus.Registry carrying only this
// Collector, for handing to promhttp.HandlerFor.
func NewRegistry(r *Recorder, now func() time.Time) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(r, now))
	return reg
}
