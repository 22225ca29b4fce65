package toll

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeletor/lightning-toll/internal/stats"
)

// Metrics returns an http.HandlerFunc serving the Prometheus text
// exposition of accumulated toll statistics under the lightning_toll_
// family prefix. The registry carries only this booth's Collector — no
// Go runtime or process metrics — so the exposed family set matches
// exactly what operators expect at this endpoint.
func (t *Toll) Metrics() http.HandlerFunc {
	registry := stats.NewRegistry(t.stats, t.clk.Now)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return handler.ServeHTTP
}
