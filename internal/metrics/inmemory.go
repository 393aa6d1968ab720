package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated        uint64
	UserCreateFailures  uint64
	ListDurationCount   uint64
	ListDurationTotalNs int64
	ListCacheHits       uint64
	ListCacheMisses     uint64
	EventsPublished     uint64
	EventsDropped       uint64
	PagesRendered       uint64
	PageFallbacks       uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	usersCreated        uint64
	userCreateFailures  uint64
	listDurationCount   uint64
	listDurationTotalNs int64
	listCacheHits       uint64
	listCacheMisses     uint64
	eventsPublished     uint64
	eventsDropped       uint64
	pagesRendered       uint64
	pageFallbacks       uint64
}

var (
	_ Recorder    = (*InMemoryRecorder)(nil)
	_ Snapshotter = (*InMemoryRecorder)(nil)
)

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:        atomic.LoadUint64(&m.usersCreated),
		UserCreateFailures:  atomic.LoadUint64(&m.userCreateFailures),
		ListDurationCount:   atomic.LoadUint64(&m.listDurationCount),
		ListDurationTotalNs: atomic.LoadInt64(&m.listDurationTotalNs),
		ListCacheHits:       atomic.LoadUint64(&m.listCacheHits),
		ListCacheMisses:     atomic.LoadUint64(&m.listCacheMisses),
		EventsPublished:     atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:       atomic.LoadUint64(&m.eventsDropped),
		PagesRendered:       atomic.LoadUint64(&m.pagesRendered),
		PageFallbacks:       atomic.LoadUint64(&m.pageFallbacks),
	}
}

// IncUserCreated increments the created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserCreateFailed increments the failure counter regardless of reason.
func (m *InMemoryRecorder) IncUserCreateFailed(reason string) {
	atomic.AddUint64(&m.userCreateFailures, 1)
}

// ObserveListDuration records list duration.
func (m *InMemoryRecorder) ObserveListDuration(duration time.Duration) {
	atomic.AddUint64(&m.listDurationCount, 1)
	atomic.AddInt64(&m.listDurationTotalNs, duration.Nanoseconds())
}

// IncListCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncListCacheHit() {
	atomic.AddUint64(&m.listCacheHits, 1)
}

// IncListCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncListCacheMiss() {
	atomic.AddUint64(&m.listCacheMisses, 1)
}

// IncEventPublished counts published and dropped events.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.eventsPublished, 1)
		return
	}
	atomic.AddUint64(&m.eventsDropped, 1)
}

// IncPageRender counts rendered pages and fallbacks.
func (m *InMemoryRecorder) IncPageRender(status string) {
	if status == PageOK {
		atomic.AddUint64(&m.pagesRendered, 1)
		return
	}
	atomic.AddUint64(&m.pageFallbacks, 1)
}
