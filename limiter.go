package tableovertwo

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Limiter is a sliding-window rate limiter keyed by client IP. Allow sweeps
// idle IPs at most once per window, so the map holds only recent clients.
type Limiter struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	max       int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewLimiter creates a Limiter that allows max hits per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow checks the IP against the limit and records the hit when allowed.
func (l *Limiter) Allow(ip string) bool {
	defer l.sweepIfDue()
	if !l.Check(ip) {
		return false
	}
	l.Record(ip)
	return true
}

func (l *Limiter) sweepIfDue() {
	now := l.now()
	l.mu.Lock()
	due := now.Sub(l.lastSweep) >= l.window
	if due {
		l.lastSweep = now
	}
	l.mu.Unlock()
	if due {
		l.Sweep()
	}
}

// Check reports whether the IP is under the limit without recording a hit.
func (l *Limiter) Check(ip string) bool {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.hits[ip], cutoff)
	if len(kept) == 0 {
		delete(l.hits, ip)
	} else {
		l.hits[ip] = kept
	}
	return len(kept) < l.max
}

// Record registers a hit for the IP.
func (l *Limiter) Record(ip string) {
	l.mu.Lock()
	l.hits[ip] = append(l.hits[ip], l.now())
	l.mu.Unlock()
}

// Sweep drops IPs with no hits inside the window and returns how many remain.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, hits := range l.hits {
		if kept := prune(hits, cutoff); len(kept) == 0 {
			delete(l.hits, ip)
		} else {
			l.hits[ip] = kept
		}
	}
	return len(l.hits)
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func (a *App) limitPreferences(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.prefLimiter.Allow(c.RealIP()) {
			return c.String(http.StatusTooManyRequests, "Too many preference changes. Try again later.")
		}
		return next(c)
	}
}
