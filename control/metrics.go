// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime metrics collector over pool statistics.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"

	"github.com/momentics/typepool/api"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// UpdateFromStats folds per-pool statistics into the metric map under
// "pool.<type>.<field>" keys plus process-wide totals.
func (mr *MetricsRegistry) UpdateFromStats(stats []api.PoolStats) {
	var live, capacity int64
	var acquires, releases, growths, helped uint64
	mr.mu.Lock()
	for _, st := range stats {
		prefix := "pool." + st.Type + "."
		mr.metrics[prefix+"live"] = st.Live
		mr.metrics[prefix+"capacity"] = st.Capacity
		mr.metrics[prefix+"free_slots"] = st.FreeSlots
		mr.metrics[prefix+"acquires"] = st.Acquires
		mr.metrics[prefix+"releases"] = st.Releases
		mr.metrics[prefix+"growths"] = st.Growths
		mr.metrics[prefix+"helped_ops"] = st.HelpedOps
		mr.metrics[prefix+"off_heap"] = st.OffHeap
		live += st.Live
		capacity += st.Capacity
		acquires += st.Acquires
		releases += st.Releases
		growths += st.Growths
		helped += st.HelpedOps
	}
	mr.metrics["pools.count"] = int64(len(stats))
	mr.metrics["pools.live"] = live
	mr.metrics["pools.capacity"] = capacity
	mr.metrics["pools.acquires"] = acquires
	mr.metrics["pools.releases"] = releases
	mr.metrics["pools.growths"] = growths
	mr.metrics["pools.helped_ops"] = helped
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// UpdatedAt reports the time of the last metric write.
func (mr *MetricsRegistry) UpdatedAt() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
