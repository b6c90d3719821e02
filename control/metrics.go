// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics registry. Counters are cheap atomics suitable for the
// scheduler's hot paths; arbitrary gauges go through Set.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing metric.
type Counter struct {
	v atomic.Int64
}

// Inc adds one.
func (c *Counter) Inc() { c.v.Add(1) }

// Add adds n.
func (c *Counter) Add(n int64) { c.v.Add(n) }

// Value returns the current count.
func (c *Counter) Value() int64 { return c.v.Load() }

// MetricsRegistry holds named counters and gauges.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]any
	updated  time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]any),
	}
}

// Counter returns the counter registered under key, creating it on first
// use. The returned pointer may be cached and bumped without locking.
func (mr *MetricsRegistry) Counter(key string) *Counter {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if ok {
		return c
	}

	mr.mu.Lock()
	defer mr.mu.Unlock()
	if c, ok = mr.counters[key]; ok {
		return c
	}
	c = &Counter{}
	mr.counters[key] = c
	return c
}

// Set sets or updates a gauge.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.gauges[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest values of all counters and gauges.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.counters)+len(mr.gauges))
	for k, v := range mr.gauges {
		out[k] = v
	}
	for k, c := range mr.counters {
		out[k] = c.Value()
	}
	return out
}
