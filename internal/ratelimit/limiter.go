// Package ratelimit holds per-client admission control for the
// SimpleNet server and its ops surface.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultLimit  = 60
	DefaultWindow = time.Minute

	defaultIdleTTL      = 15 * time.Minute
	defaultCleanupEvery = 2 * time.Minute
)

// Limiter admits requests under a sliding-window ceiling per client.
// Expired timestamps are pruned lazily on each admission check, so an
// idle client costs nothing until it speaks again or the janitor runs.
type Limiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	idleTTL      time.Duration
	cleanupEvery time.Duration

	mu      sync.Mutex
	clients map[string]*clientWindow
}

type clientWindow struct {
	stamps   []time.Time
	lastSeen time.Time
}

type Option func(*Limiter)

// WithClock substitutes the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithIdleTTL sets how long an idle client's window survives before
// the janitor may evict it.
func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.idleTTL = d
		}
	}
}

// WithCleanupEvery sets the janitor sweep interval.
func WithCleanupEvery(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.cleanupEvery = d
		}
	}
}

func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		limit:        limit,
		window:       window,
		clock:        time.Now,
		idleTTL:      defaultIdleTTL,
		cleanupEvery: defaultCleanupEvery,
		clients:      make(map[string]*clientWindow),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit records one request attempt for clientID and reports whether
// it falls inside the window ceiling. Rejected attempts are not
// recorded against the client.
func (l *Limiter) Admit(clientID string) bool {
	now := l.clock()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	cw, ok := l.clients[clientID]
	if !ok {
		cw = &clientWindow{}
		l.clients[clientID] = cw
	}
	kept := cw.stamps[:0]
	for _, ts := range cw.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	cw.stamps = kept
	cw.lastSeen = now
	if len(cw.stamps) >= l.limit {
		return false
	}
	cw.stamps = append(cw.stamps, now)
	return true
}

// Clients returns the number of tracked client windows.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Cleanup evicts windows idle past the configured TTL.
func (l *Limiter) Cleanup() {
	cutoff := l.clock().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, cw := range l.clients {
		if cw.lastSeen.Before(cutoff) {
			delete(l.clients, id)
		}
	}
}

// StartJanitor launches a background sweep that evicts idle client
// windows until ctx is done.
func (l *Limiter) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(l.cleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
				log.Debug().Int("clients", l.Clients()).Msg("ratelimit janitor swept")
			}
		}
	}()
}
