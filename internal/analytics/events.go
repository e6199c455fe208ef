// Package analytics tracks search usage. A buffered collector publishes
// events to Kafka, an aggregator consumes them into in-memory stats, and a
// store periodically persists aggregate snapshots to PostgreSQL. The whole
// pipeline is optional; search serves fine without it.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventRebuild    EventType = "index_rebuild"
)

// SearchEvent is emitted for every query served by the search API.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms,omitempty"`
	Total     int       `json:"total"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// RebuildEvent is emitted when an index snapshot is rebuilt.
type RebuildEvent struct {
	Type       EventType `json:"type"`
	Documents  int       `json:"documents"`
	Tokens     int       `json:"tokens"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
