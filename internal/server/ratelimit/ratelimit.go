// Package ratelimit limits expensive requests per client with token buckets.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Policy describes the allowance for one client: Limit requests per Window,
// with up to Burst requests at once.
type Policy struct {
	Limit  int
	Window time.Duration
	Burst  int
}

// Enabled reports whether the policy limits anything.
func (p Policy) Enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

// DefaultPolicy allows 10 ranking runs per hour with a burst of 2.
func DefaultPolicy() Policy {
	return Policy{Limit: 10, Window: time.Hour, Burst: 2}
}

// DefaultPruneInterval is how often RunPruner drops idle clients.
const DefaultPruneInterval = 5 * time.Minute

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks one token bucket per client id.
type Limiter struct {
	policy    Policy
	whitelist map[string]bool
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

// NewLimiter creates a Limiter. Clients in whitelist are never limited.
func NewLimiter(policy Policy, whitelist ...string) *Limiter {
	if policy.Burst <= 0 {
		policy.Burst = max(policy.Limit, 1)
	}
	wl := make(map[string]bool, len(whitelist))
	for _, id := range whitelist {
		wl[id] = true
	}
	return &Limiter{
		policy:    policy,
		whitelist: wl,
		now:       time.Now,
		clients:   make(map[string]*client),
	}
}

// Allow consumes a token for clientID if one is available.
func (l *Limiter) Allow(clientID string) Info {
	if !l.policy.Enabled() || l.whitelist[clientID] {
		return Info{Allowed: true}
	}

	now := l.now()
	l.mu.Lock()
	c, ok := l.clients[clientID]
	if !ok {
		every := l.policy.Window / time.Duration(l.policy.Limit)
		c = &client{limiter: rate.NewLimiter(rate.Every(every), l.policy.Burst)}
		l.clients[clientID] = c
	}
	c.lastSeen = now
	l.mu.Unlock()

	r := c.limiter.ReserveN(now, 1)
	info := Info{Limit: l.policy.Limit}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		info.RetryAfter = delay
	} else {
		info.Allowed = true
	}
	info.Remaining = int(math.Max(0, math.Floor(c.limiter.TokensAt(now))))
	return info
}

// Prune drops clients idle for longer than maxIdle and returns how many were removed.
func (l *Limiter) Prune(maxIdle time.Duration) int {
	cutoff := l.now().Add(-maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RunPruner drops clients idle for longer than the policy window every interval
// until ctx is done. By then an idle client's bucket has refilled, so dropping it
// changes no decision.
func (l *Limiter) RunPruner(ctx context.Context, interval time.Duration) {
	if !l.policy.Enabled() {
		return
	}
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune(l.policy.Window)
		}
	}
}
