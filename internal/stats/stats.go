// Package stats aggregates request statistics for the SimpleNet server.
//
// Sinks are best-effort: a nil or failing store must never affect
// request handling.
package stats

import (
	"context"
	"time"
)

// Event describes one handled request.
type Event struct {
	ClientID string
	Path     string
	Status   int
	Allowed  bool
	At       time.Time
}

// Store persists request statistics.
type Store interface {
	Record(ctx context.Context, ev Event) error
}

// Counters pairs admission outcomes.
type Counters struct {
	Allowed uint64 `json:"allowed"`
	Denied  uint64 `json:"denied"`
}
