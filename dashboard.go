package toll

import (
	"net/http"

	"github.com/jeletor/lightning-toll/internal/stats"
	"github.com/jeletor/lightning-toll/pkg/responders"
)

// dashboardView mirrors stats.Snapshot's JSON shape but trims
// recentPayments to the dashboard's newest-first, max-20 view.
type dashboardView struct {
	TotalRevenueSats int64                          `json:"totalRevenue"`
	TotalRequests    int64                          `json:"totalRequests"`
	TotalPaid        int64                          `json:"totalPaid"`
	UniquePayers     int64                          `json:"uniquePayers"`
	Endpoints        map[string]stats.EndpointStats `json:"endpoints"`
	RecentPayments   []stats.Payment                `json:"recentPayments"`
}

// Dashboard returns an http.HandlerFunc serving a JSON snapshot of
// accumulated toll statistics, suitable for mounting at an operator-only
// route.
func (t *Toll) Dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := t.stats.Snapshot()
		view := dashboardView{
			TotalRevenueSats: snapshot.TotalRevenueSats,
			TotalRequests:    snapshot.TotalRequests,
			TotalPaid:        snapshot.TotalPaid,
			UniquePayers:     snapshot.UniquePayers,
			Endpoints:        snapshot.Endpoints,
			RecentPayments:   stats.DashboardPayments(snapshot, 20),
		}
		responders.JSON(w, http.StatusOK, view)
	}
}
