package models

import "time"

// SystemMetrics is a lightweight summary of process counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SnapshotWrites           uint64    `json:"snapshot_writes"`
	SnapshotWriteFailures    uint64    `json:"snapshot_write_failures"`
	AverageSnapshotWriteMs   float64   `json:"average_snapshot_write_ms"`
	RelayStores              uint64    `json:"relay_stores"`
	RelayRetrievals          uint64    `json:"relay_retrievals"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
