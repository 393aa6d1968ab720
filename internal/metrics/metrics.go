// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Event publish outcomes.
const (
	StatusSuccess = "success"
	StatusDropped = "dropped"
)

// Page render outcomes.
const (
	PageOK       = "ok"
	PageFallback = "fallback"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// User writes
	IncUserCreated()
	IncUserCreateFailed(reason string) // reason: "validation", "unavailable", "storage"

	// User reads
	ObserveListDuration(duration time.Duration)
	IncListCacheHit()
	IncListCacheMiss()

	// Side channels
	IncEventPublished(status string) // status: "success" or "dropped"
	IncPageRender(status string)     // status: "ok" or "fallback"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
