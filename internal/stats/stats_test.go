package stats

import (
	"context"
	"testing"
	"time"

	"github.com/simplenet-proto/simplenet/internal/testutil/testlog"
)

func TestMemoryStoreAggregates(t *testing.T) {
	testlog.Start(t)

	s := NewMemoryStore()
	ctx := context.Background()
	at := time.Unix(1700000000, 0)

	events := []Event{
		{ClientID: "10.0.0.1", Path: "giorgio.net", Status: 20, Allowed: true, At: at},
		{ClientID: "10.0.0.1", Path: "giorgio.net/about", Status: 40, Allowed: true, At: at},
		{ClientID: "10.0.0.2", Path: "wiki.smd", Status: 41, Allowed: false, At: at},
	}
	for _, ev := range events {
		if err := s.Record(ctx, ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	totals := s.Totals()
	if totals.Allowed != 2 || totals.Denied != 1 {
		t.Fatalf("totals = %+v, want allowed=2 denied=1", totals)
	}

	byStatus := s.ByStatus()
	if byStatus[20] != 1 || byStatus[40] != 1 || byStatus[41] != 1 {
		t.Fatalf("byStatus = %v", byStatus)
	}

	byClient := s.ByClient()
	if c := byClient["10.0.0.1"]; c.Allowed != 2 || c.Denied != 0 {
		t.Fatalf("client 10.0.0.1 counters = %+v", c)
	}
	if c := byClient["10.0.0.2"]; c.Allowed != 0 || c.Denied != 1 {
		t.Fatalf("client 10.0.0.2 counters = %+v", c)
	}
}

func TestMemoryStoreCopiesAreDetached(t *testing.T) {
	testlog.Start(t)

	s := NewMemoryStore()
	_ = s.Record(context.Background(), Event{ClientID: "c", Status: 20, Allowed: true})

	byStatus := s.ByStatus()
	byStatus[20] = 99
	if got := s.ByStatus()[20]; got != 1 {
		t.Fatalf("byStatus after tamper = %d, want 1", got)
	}
}

func TestNilStoresAreNoOps(t *testing.T) {
	testlog.Start(t)

	var mem *MemoryStore
	if err := mem.Record(context.Background(), Event{}); err != nil {
		t.Fatalf("nil MemoryStore.Record: %v", err)
	}

	var rds *RedisStore
	if err := rds.Record(context.Background(), Event{}); err != nil {
		t.Fatalf("nil RedisStore.Record: %v", err)
	}

	noClient := NewRedisStore(nil)
	if err := noClient.Record(context.Background(), Event{}); err != nil {
		t.Fatalf("clientless RedisStore.Record: %v", err)
	}
}
