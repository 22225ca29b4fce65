// Package freetier implements the per-route, per-client free-tier counter:
// a small number of unpaid admissions per window, with a periodic sweep
// reclaiming stale entries.
package freetier

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeletor/lightning-toll/internal/clock"
)

// entry is a per-(route, client) counter and the instant its current
// window began.
type entry struct {
	count       int
	windowStart time.Time
}

// Accountant admits or rejects free-tier requests for one route. It is
// safe for concurrent use: the whole read-modify-write per client is a
// single critical section under one mutex.
type Accountant struct {
	clk          clock.Clock
	freeRequests int
	window       time.Duration

	mu      sync.Mutex
	entries map[string]*entry

	stop chan struct{}
	done chan struct{}
}

// New creates an Accountant for a route configured with freeRequests free
// admissions per window. A non-positive window defaults to one hour.
func New(clk clock.Clock, freeRequests int, window time.Duration) *Accountant {
	if clk == nil {
		clk = clock.Real{}
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Accountant{
		clk:          clk,
		freeRequests: freeRequests,
		window:       window,
		entries:      make(map[string]*entry),
	}
}

// Admit implements the three-step admission rule: a route with zero free
// requests never admits; a stale or absent entry resets the window;
// otherwise the client is admitted iff its count hasn't yet reached the
// free-request budget.
func (a *Accountant) Admit(clientID string) bool {
	if a.freeRequests == 0 {
		return false
	}

	now := a.clk.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.entries[clientID]
	if !ok || now.Sub(e.windowStart) > a.window {
		e = &entry{windowStart: now}
		a.entries[clientID] = e
	}

	if e.count < a.freeRequests {
		e.count++
		return true
	}
	return false
}

// StartSweeper launches the periodic eviction goroutine (period = window)
// that reclaims entries whose window started more than 2*window ago. It
// returns a stop function; calling it blocks until the sweeper goroutine
// has exited, so it is safe to use directly as an io.Closer-style hook in
// a shutdown coordinator.
func (a *Accountant) StartSweeper() (stop func()) {
	a.stop = make(chan struct{})
	a.done = make(chan struct{})

	go func() {
		defer close(a.done)
		ticker := time.NewTicker(a.window)
		defer ticker.Stop()
		for {
			select {
			case <-a.stop:
				return
			case <-ticker.C:
				a.sweep()
			}
		}
	}()

	return func() {
		close(a.stop)
		<-a.done
	}
}

func (a *Accountant) sweep() {
	now := a.clk.Now()
	cutoff := 2 * a.window

	a.mu.Lock()
	defer a.mu.Unlock()
	for id, e := range a.entries {
		if now.Sub(e.windowStart) > cutoff {
			delete(a.entries, id)
		}
	}
}

// Len reports the number of tracked entries, for tests and diagnostics.
func (a *Accountant) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// ParseWindow parses a free-tier window expressed as "<n>ms", "<n>s",
// "<n>m", "<n>h", "<n>d", or a bare millisecond integer. time.ParseDuration
// has no day unit, so a "d" suffix is handled explicitly before falling
// back to the millisecond and default cases. Anything unparseable
// defaults to one hour.
func ParseWindow(s string) time.Duration {
	if s == "" {
		return time.Hour
	}
	if strings.HasSuffix(s, "d") {
		if days, err := strconv.ParseFloat(strings.TrimSuffix(s, "d"), 64); err == nil {
			return time.Duration(days * 24 * float64(time.Hour))
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return time.Hour
}
