package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserCreated is a no-op.
func (n *NoopRecorder) IncUserCreated() {}

// IncUserCreateFailed is a no-op.
func (n *NoopRecorder) IncUserCreateFailed(reason string) {}

// ObserveListDuration is a no-op.
func (n *NoopRecorder) ObserveListDuration(duration time.Duration) {}

// IncListCacheHit is a no-op.
func (n *NoopRecorder) IncListCacheHit() {}

// IncListCacheMiss is a no-op.
func (n *NoopRecorder) IncListCacheMiss() {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}

// IncPageRender is a no-op.
func (n *NoopRecorder) IncPageRender(status string) {}
