// Package api
// Author: momentics
//
// Mock/testing utilities for the boundary contracts; extendable for new
// interfaces.

package api

import "sync/atomic"

// MockClock is a manually advanced Clock for deterministic tests.
type MockClock struct {
	tick   atomic.Uint64
	cycles atomic.Uint64
	Freq   uint64
}

func (m *MockClock) Ticks() uint64  { return m.tick.Load() }
func (m *MockClock) Cycles() uint64 { return m.cycles.Load() }
func (m *MockClock) TickFreq() uint64 {
	if m.Freq == 0 {
		return 100
	}
	return m.Freq
}

// Advance moves the tick counter forward by n ticks.
func (m *MockClock) Advance(n uint64) { m.tick.Add(n) }

// AdvanceCycles moves the cycle counter forward by n cycles.
func (m *MockClock) AdvanceCycles(n uint64) { m.cycles.Add(n) }

// MockIntController records interrupt requests instead of delivering them.
// Tests deliver signals directly through the arch layer.
type MockIntController struct {
	RequestFunc func(core CoreID, ticks uint64)
	CancelFunc  func(core CoreID)
	WakeupFunc  func(core CoreID)
}

func (m *MockIntController) RequestInterruptIn(core CoreID, ticks uint64) {
	if m.RequestFunc != nil {
		m.RequestFunc(core, ticks)
	}
}

func (m *MockIntController) CancelPeriodicFallback(core CoreID) {
	if m.CancelFunc != nil {
		m.CancelFunc(core)
	}
}

func (m *MockIntController) SendWakeupSignal(core CoreID) {
	if m.WakeupFunc != nil {
		m.WakeupFunc(core)
	}
}
