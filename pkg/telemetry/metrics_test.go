package telemetry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want LatencyBucket
	}{
		{0, BucketP10},
		{9 * time.Millisecond, BucketP10},
		{10 * time.Millisecond, BucketP50},
		{49 * time.Millisecond, BucketP50},
		{75 * time.Millisecond, BucketP100},
		{250 * time.Millisecond, BucketP500},
		{500 * time.Millisecond, BucketP1000},
		{3 * time.Second, BucketP1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyToBucket(tt.d), "duration %s", tt.d)
	}
}

func TestCircularBuffer_FIFOOrder(t *testing.T) {
	b := NewCircularBuffer[int](3)
	assert.Equal(t, 0, b.Size())
	assert.Empty(t, b.Items())

	b.Add(1)
	b.Add(2)
	assert.Equal(t, []int{1, 2}, b.Items())

	b.Add(3)
	b.Add(4) // evicts 1
	b.Add(5) // evicts 2
	assert.Equal(t, 3, b.Size())
	assert.Equal(t, []int{3, 4, 5}, b.Items())

	b.Clear()
	assert.Equal(t, 0, b.Size())
	assert.Empty(t, b.Items())
}

func TestCircularBuffer_DefaultCapacity(t *testing.T) {
	b := NewCircularBuffer[string](0)
	for i := 0; i < 150; i++ {
		b.Add(fmt.Sprintf("q%d", i))
	}
	assert.Equal(t, 100, b.Size())
	items := b.Items()
	assert.Equal(t, "q50", items[0])
	assert.Equal(t, "q149", items[99])
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(10)

	m.Record(SearchEvent{Query: "thalos", Strategy: "exact", ResultCount: 3, Latency: 5 * time.Millisecond})
	m.Record(SearchEvent{Query: "prime", Strategy: "auto", ResultCount: 0, Latency: 60 * time.Millisecond})
	m.Record(SearchEvent{Query: "babel", Strategy: "auto", ResultCount: 1, Latency: 12 * time.Millisecond})

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalSearches)
	assert.Equal(t, int64(1), snap.StrategyCounts["exact"])
	assert.Equal(t, int64(2), snap.StrategyCounts["auto"])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP10])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP50])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP100])
	assert.Equal(t, int64(1), snap.ZeroResultCount)
	assert.Equal(t, []string{"prime"}, snap.ZeroResultQueries)
	assert.InDelta(t, 100.0/3.0, snap.ZeroResultPercentage(), 1e-9)
	assert.False(t, snap.Since.IsZero())
}

func TestMetrics_CacheCounters(t *testing.T) {
	m := NewMetrics(10)

	for i := 0; i < 3; i++ {
		m.RecordCacheHit()
	}
	m.RecordCacheMiss()
	m.RecordPageGenerated()

	hits, misses := m.CacheCounters()
	assert.Equal(t, int64(3), hits)
	assert.Equal(t, int64(1), misses)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.CacheHits)
	assert.Equal(t, int64(1), snap.CacheMisses)
	assert.Equal(t, int64(1), snap.PagesGenerated)
	assert.InDelta(t, 0.75, snap.HitRate(), 1e-9)
}

func TestSnapshot_EmptyRates(t *testing.T) {
	snap := NewMetrics(10).Snapshot()
	assert.Zero(t, snap.HitRate())
	assert.Zero(t, snap.ZeroResultPercentage())
}

func TestSnapshot_IsACopy(t *testing.T) {
	m := NewMetrics(10)
	m.Record(SearchEvent{Query: "thalos", Strategy: "exact", ResultCount: 1})

	snap := m.Snapshot()
	snap.StrategyCounts["exact"] = 99

	require.Equal(t, int64(1), m.Snapshot().StrategyCounts["exact"])
}

func TestMetrics_ConcurrentUse(t *testing.T) {
	m := NewMetrics(50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Record(SearchEvent{Query: "q", Strategy: "auto", ResultCount: j % 2})
				m.RecordCacheHit()
				m.RecordCacheMiss()
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(800), snap.TotalSearches)
	assert.Equal(t, int64(800), snap.CacheHits)
	assert.Equal(t, int64(800), snap.CacheMisses)
	assert.Equal(t, int64(400), snap.ZeroResultCount)
}
