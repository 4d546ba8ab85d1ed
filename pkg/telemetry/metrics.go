// Package telemetry collects local search and cache metrics. All data
// stays in process - nothing is reported externally.
package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Latency Buckets
// =============================================================================

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// =============================================================================
// Search Event
// =============================================================================

// SearchEvent records one executed search for telemetry.
type SearchEvent struct {
	Query       string
	Strategy    string
	Candidates  int
	ResultCount int
	Latency     time.Duration
	Timestamp   time.Time
}

// IsZeroResult returns true if this search returned no results.
func (e SearchEvent) IsZeroResult() bool {
	return e.ResultCount == 0
}

// =============================================================================
// Circular Buffer
// =============================================================================

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	items    []T
	head     int // next write position
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a new circular buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item to the buffer. If full, the oldest item is evicted.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns all items in FIFO order (oldest first).
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return []T{}
	}
	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Clear removes all items from the buffer.
func (b *CircularBuffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.size = 0
}

// =============================================================================
// Metrics Collector
// =============================================================================

// Metrics aggregates search events and cache counters. Safe for
// concurrent use.
type Metrics struct {
	mu             sync.Mutex
	strategyCounts map[string]int64
	latencyCounts  map[LatencyBucket]int64
	recent         *CircularBuffer[SearchEvent]
	zeroResults    *CircularBuffer[string]
	totalSearches  int64
	zeroCount      int64
	since          time.Time

	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	pagesGenerated atomic.Int64
}

// NewMetrics creates a metrics collector keeping up to recentCapacity
// recent events.
func NewMetrics(recentCapacity int) *Metrics {
	return &Metrics{
		strategyCounts: make(map[string]int64),
		latencyCounts:  make(map[LatencyBucket]int64),
		recent:         NewCircularBuffer[SearchEvent](recentCapacity),
		zeroResults:    NewCircularBuffer[string](recentCapacity),
		since:          time.Now(),
	}
}

// Record records one search event.
func (m *Metrics) Record(e SearchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalSearches++
	m.strategyCounts[e.Strategy]++
	m.latencyCounts[LatencyToBucket(e.Latency)]++
	m.recent.Add(e)
	if e.IsZeroResult() {
		m.zeroCount++
		m.zeroResults.Add(e.Query)
	}
}

// RecordCacheHit increments the cache hit counter.
func (m *Metrics) RecordCacheHit() { m.cacheHits.Add(1) }

// RecordCacheMiss increments the cache miss counter.
func (m *Metrics) RecordCacheMiss() { m.cacheMisses.Add(1) }

// RecordPageGenerated increments the generated-page counter.
func (m *Metrics) RecordPageGenerated() { m.pagesGenerated.Add(1) }

// CacheCounters returns the current (hits, misses) pair.
func (m *Metrics) CacheCounters() (hits, misses int64) {
	return m.cacheHits.Load(), m.cacheMisses.Load()
}

// Snapshot is an immutable view of collected metrics.
type Snapshot struct {
	StrategyCounts      map[string]int64        `json:"strategy_counts"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	TotalSearches       int64                   `json:"total_searches"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	CacheHits           int64                   `json:"cache_hits"`
	CacheMisses         int64                   `json:"cache_misses"`
	PagesGenerated      int64                   `json:"pages_generated"`
	Since               time.Time               `json:"since"`
}

// HitRate returns the cache hit fraction in [0, 1].
func (s *Snapshot) HitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// ZeroResultPercentage returns the percentage of zero-result searches.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalSearches == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalSearches) * 100
}

// Snapshot returns an immutable copy of the current metrics.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	strategies := make(map[string]int64, len(m.strategyCounts))
	for k, v := range m.strategyCounts {
		strategies[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencyCounts))
	for k, v := range m.latencyCounts {
		latencies[k] = v
	}

	return Snapshot{
		StrategyCounts:      strategies,
		LatencyDistribution: latencies,
		ZeroResultQueries:   m.zeroResults.Items(),
		TotalSearches:       m.totalSearches,
		ZeroResultCount:     m.zeroCount,
		CacheHits:           m.cacheHits.Load(),
		CacheMisses:         m.cacheMisses.Load(),
		PagesGenerated:      m.pagesGenerated.Load(),
		Since:               m.since,
	}
}
