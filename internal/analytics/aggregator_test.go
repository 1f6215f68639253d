package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestAggregatorRecord(t *testing.T) {
	a := NewAggregator()
	a.Record(QueryEvent{Mode: "boolean", Hits: 2, LatencyMs: 10})
	a.Record(QueryEvent{Mode: "boolean", Hits: 0, LatencyMs: 20, CacheHit: true})
	a.Record(QueryEvent{Mode: "phrase", Hits: 1, LatencyMs: 30})

	stats := a.Snapshot()
	if stats.TotalQueries != 3 {
		t.Errorf("TotalQueries = %d, want 3", stats.TotalQueries)
	}
	if stats.ByMode["boolean"] != 2 || stats.ByMode["phrase"] != 1 {
		t.Errorf("ByMode = %v", stats.ByMode)
	}
	if stats.ZeroResults != 1 {
		t.Errorf("ZeroResults = %d, want 1", stats.ZeroResults)
	}
	if stats.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", stats.CacheHits)
	}
	if stats.AvgLatencyMs != 20 {
		t.Errorf("AvgLatencyMs = %v, want 20", stats.AvgLatencyMs)
	}
}

func TestAggregatorEmpty(t *testing.T) {
	stats := NewAggregator().Snapshot()
	if stats.TotalQueries != 0 || stats.AvgLatencyMs != 0 {
		t.Errorf("empty aggregator stats = %+v", stats)
	}
	if stats.ByMode == nil {
		t.Error("ByMode must be non-nil so it serialises as {}")
	}
}

func TestAggregatorSnapshotIsolated(t *testing.T) {
	a := NewAggregator()
	a.Record(QueryEvent{Mode: "boolean", Hits: 1})
	stats := a.Snapshot()
	stats.ByMode["boolean"] = 99

	if got := a.Snapshot().ByMode["boolean"]; got != 1 {
		t.Errorf("mutating a snapshot leaked into the aggregator: %d", got)
	}
}

func TestAggregatorConcurrentRecord(t *testing.T) {
	a := NewAggregator()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				a.Record(QueryEvent{Mode: "boolean", Hits: 1, LatencyMs: 1})
			}
		}()
	}
	wg.Wait()

	stats := a.Snapshot()
	if stats.TotalQueries != 1000 {
		t.Errorf("TotalQueries = %d, want 1000", stats.TotalQueries)
	}
	if stats.AvgLatencyMs != 1 {
		t.Errorf("AvgLatencyMs = %v, want 1", stats.AvgLatencyMs)
	}
}

func TestHandleEvent(t *testing.T) {
	a := NewAggregator()
	handler := HandleEvent(a)

	event := QueryEvent{
		Mode:      "phrase",
		Query:     "cat sat",
		Hits:      1,
		LatencyMs: 5,
		Timestamp: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := handler(context.Background(), nil, value); err != nil {
		t.Fatalf("handler: %v", err)
	}

	stats := a.Snapshot()
	if stats.TotalQueries != 1 || stats.ByMode["phrase"] != 1 {
		t.Errorf("stats after consume = %+v", stats)
	}

	if err := handler(context.Background(), nil, []byte("not json")); err == nil {
		t.Error("malformed message must surface a decode error")
	}
}
