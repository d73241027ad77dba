package ratelimit

import (
	"testing"
	"time"

	"github.com/simplenet-proto/simplenet/internal/testutil/testlog"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestAdmitCeilingAndReadmission(t *testing.T) {
	testlog.Start(t)

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := New(60, time.Minute, WithClock(clock.Now))

	for i := 0; i < 60; i++ {
		if !l.Admit("10.0.0.1") {
			t.Fatalf("request %d rejected under ceiling", i+1)
		}
		clock.Advance(10 * time.Millisecond)
	}
	if l.Admit("10.0.0.1") {
		t.Fatalf("request 61 admitted over ceiling")
	}

	clock.Advance(61 * time.Second)
	if !l.Admit("10.0.0.1") {
		t.Fatalf("request rejected after window expired")
	}
}

func TestAdmitRejectionNotCountedAgainstClient(t *testing.T) {
	testlog.Start(t)

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := New(2, time.Minute, WithClock(clock.Now))

	if !l.Admit("c") || !l.Admit("c") {
		t.Fatalf("warm-up admissions rejected")
	}
	for i := 0; i < 5; i++ {
		if l.Admit("c") {
			t.Fatalf("admitted over ceiling on attempt %d", i)
		}
	}

	// Both recorded stamps age out together; the rejected attempts
	// must not have extended the window.
	clock.Advance(61 * time.Second)
	if !l.Admit("c") {
		t.Fatalf("rejected after recorded stamps expired")
	}
}

func TestAdmitTracksClientsIndependently(t *testing.T) {
	testlog.Start(t)

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := New(1, time.Minute, WithClock(clock.Now))

	if !l.Admit("a") {
		t.Fatalf("client a rejected on first request")
	}
	if l.Admit("a") {
		t.Fatalf("client a admitted over ceiling")
	}
	if !l.Admit("b") {
		t.Fatalf("client b rejected despite empty window")
	}
}

func TestAdmitSlidingWindowPartialExpiry(t *testing.T) {
	testlog.Start(t)

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := New(2, time.Minute, WithClock(clock.Now))

	if !l.Admit("c") {
		t.Fatalf("first admission rejected")
	}
	clock.Advance(30 * time.Second)
	if !l.Admit("c") {
		t.Fatalf("second admission rejected")
	}
	if l.Admit("c") {
		t.Fatalf("third admission allowed with both stamps live")
	}

	// 31s later the first stamp is outside the window, the second is not.
	clock.Advance(31 * time.Second)
	if !l.Admit("c") {
		t.Fatalf("admission rejected after first stamp expired")
	}
	if l.Admit("c") {
		t.Fatalf("admission allowed with window full again")
	}
}

func TestCleanupEvictsIdleClients(t *testing.T) {
	testlog.Start(t)

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	l := New(5, time.Minute, WithClock(clock.Now), WithIdleTTL(10*time.Minute))

	l.Admit("idle")
	clock.Advance(5 * time.Minute)
	l.Admit("active")

	clock.Advance(6 * time.Minute)
	l.Cleanup()

	if got := l.Clients(); got != 1 {
		t.Fatalf("tracked clients = %d, want 1 after cleanup", got)
	}
	if !l.Admit("idle") {
		t.Fatalf("evicted client rejected on fresh window")
	}
}

func TestBucketStoreReusesLimiterPerKey(t *testing.T) {
	testlog.Start(t)

	s := NewBucketStore(1, 2)
	first := s.Get("10.0.0.1")
	if again := s.Get("10.0.0.1"); again != first {
		t.Fatalf("Get returned a new limiter for a known key")
	}
	if other := s.Get("10.0.0.2"); other == first {
		t.Fatalf("Get shared a limiter across keys")
	}
	if got := s.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
}

func TestBucketStoreBurst(t *testing.T) {
	testlog.Start(t)

	s := NewBucketStore(0.1, 2)
	lim := s.Get("k")
	if !lim.Allow() || !lim.Allow() {
		t.Fatalf("burst allowance rejected")
	}
	if lim.Allow() {
		t.Fatalf("allowed past burst with negligible refill")
	}
}
