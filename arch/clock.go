// File: arch/clock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Monotonic time source backed by the host clock: a tick counter at a
// configurable frequency plus a nanosecond cycle counter.

package arch

import (
	"time"

	"github.com/momentics/hioload-sched/api"
)

// TickClock implements api.Clock on top of the host monotonic clock.
type TickClock struct {
	start time.Time
	freq  uint64
}

// NewTickClock creates a clock ticking at freq Hz.
func NewTickClock(freq uint64) *TickClock {
	if freq == 0 {
		freq = 100
	}
	return &TickClock{start: time.Now(), freq: freq}
}

// Ticks returns full ticks elapsed since boot.
func (t *TickClock) Ticks() uint64 {
	return uint64(time.Since(t.start)) * t.freq / uint64(time.Second)
}

// Cycles returns nanoseconds since boot, standing in for a TSC.
func (t *TickClock) Cycles() uint64 {
	return uint64(time.Since(t.start))
}

// TickFreq returns the tick frequency in Hz.
func (t *TickClock) TickFreq() uint64 { return t.freq }

var _ api.Clock = (*TickClock)(nil)
