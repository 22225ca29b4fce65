package stats

import (
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, r *Recorder, now time.Time) map[string]*dto.MetricFamily {
	t.Helper()
	reg := NewRegistry(r, func() time.Time { return now })
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestCollectorEmitsCoreFamilies(t *testing.T) {
	r := New(nil)
	r.RecordPaid("/api/joke", "payer-1", "hash-1", 5)
	r.RecordFree("/api/joke")

	families := gather(t, r, time.Now())

	for _, name := range []string{
		"lightning_toll_revenue_sats_total",
		"lightning_toll_requests_total",
		"lightning_toll_paid_requests_total",
		"lightning_toll_unique_payers",
		"lightning_toll_endpoint_revenue_sats",
		"lightning_toll_endpoint_requests",
		"lightning_toll_endpoint_paid",
		"lightning_toll_endpoint_free",
		"lightning_toll_payments_per_minute",
		"lightning_toll_average_payment_sats",
	} {
		if _, ok := families[name]; !ok {
			t.Fatalf("expected metric family %s to be present", name)
		}
	}
}

func TestCollectorOmitsAveragePaymentWhenNoPaidEvents(t *testing.T) {
	r := New(nil)
	r.RecordFree("/api/joke")

	families := gather(t, r, time.Now())
	if _, ok := families["lightning_toll_average_payment_sats"]; ok {
		t.Fatal("expected average_payment_sats to be absent with zero paid events")
	}
}

func TestCollectorEndpointLabelsMatch(t *testing.T) {
	r := New(nil)
	r.RecordPaid("/api/joke", "payer-1", "hash-1", 5)

	families := gather(t, r, time.Now())
	metrics := families["lightning_toll_endpoint_revenue_sats"].GetMetric()
	if len(metrics) != 1 {
		t.Fatalf("expected exactly one endpoint series, got %d", len(metrics))
	}
	labels := metrics[0].GetLabel()
	if len(labels) != 1 || labels[0].GetName() != "endpoint" || labels[0].GetValue() != "/api/joke" {
		t.Fatalf("unexpected labels: %+v", labels)
	}
	if metrics[0].GetGauge().GetValue() != 5 {
		t.Fatalf("expected endpoint revenue 5, got %g", metrics[0].GetGauge().GetValue())
	}
}

func TestContentTypeConstant(t *testing.T) {
	if !strings.HasPrefix(ContentType, "text/plain; version=0.0.4") {
		t.Fatalf("unexpected content type: %s", ContentType)
	}
}
