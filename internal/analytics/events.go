// Package analytics tracks query traffic. A Collector buffers events and
// publishes them to Kafka; an Aggregator consumes the topic and serves
// running statistics.
package analytics

import "time"

// QueryEvent describes one evaluated query.
type QueryEvent struct {
	Mode      string    `json:"mode"`
	Query     string    `json:"query"`
	Hits      int       `json:"hits"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
