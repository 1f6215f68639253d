package analytics

import (
	"context"
	"sync"

	"github.com/pradiptarakha/corpusindex/pkg/kafka"
)

// Stats is a point-in-time view of aggregated query traffic.
type Stats struct {
	TotalQueries int64            `json:"total_queries"`
	ByMode       map[string]int64 `json:"by_mode"`
	ZeroResults  int64            `json:"zero_results"`
	CacheHits    int64            `json:"cache_hits"`
	AvgLatencyMs float64          `json:"avg_latency_ms"`
}

// Aggregator keeps running query statistics fed by consumed events.
type Aggregator struct {
	mu             sync.Mutex
	totalQueries   int64
	byMode         map[string]int64
	zeroResults    int64
	cacheHits      int64
	totalLatencyMs int64
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{byMode: make(map[string]int64)}
}

// Record folds one event into the running totals.
func (a *Aggregator) Record(event QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalQueries++
	a.byMode[event.Mode]++
	if event.Hits == 0 {
		a.zeroResults++
	}
	if event.CacheHit {
		a.cacheHits++
	}
	a.totalLatencyMs += event.LatencyMs
}

// Snapshot returns the current statistics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	byMode := make(map[string]int64, len(a.byMode))
	for mode, n := range a.byMode {
		byMode[mode] = n
	}
	stats := Stats{
		TotalQueries: a.totalQueries,
		ByMode:       byMode,
		ZeroResults:  a.zeroResults,
		CacheHits:    a.cacheHits,
	}
	if a.totalQueries > 0 {
		stats.AvgLatencyMs = float64(a.totalLatencyMs) / float64(a.totalQueries)
	}
	return stats
}

// HandleEvent adapts the aggregator to the Kafka consumer callback.
func HandleEvent(a *Aggregator) kafka.MessageHandler {
	return func(_ context.Context, _ []byte, value []byte) error {
		event, err := kafka.DecodeJSON[QueryEvent](value)
		if err != nil {
			return err
		}
		a.Record(event)
		return nil
	}
}
