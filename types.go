package xtrack

import (
	"time"
)

// PoolStats returns telemetry about the observer pool.
type PoolStats struct {
	Dropped      uint64 // Events dropped due to full buffer
	Processed    uint64 // Events successfully processed
	ActiveEvents int    // Current queue depth
	Workers      int    // Number of dispatch goroutines
	BufferSize   int    // Channel capacity
}

// Metrics defines observable telemetry for the dispatcher.
type Metrics struct {
	Dispatched        uint64
	AdapterCalls      uint64
	AdapterErrors     uint64
	AdapterSkipped    uint64
	Relayed           uint64
	RelayErrors       uint64
	EventsDropped     uint64
	AvgDispatchTimeMs float64
}

// HealthStatus indicates dispatcher health for Kubernetes probes.
type HealthStatus struct {
	Status    string // "healthy", "degraded", "unhealthy"
	Metrics   Metrics
	Timestamp time.Time
	Message   string
}
