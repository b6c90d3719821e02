// File: arch/intctrl_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package arch

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestControllerPeriodicTicks(t *testing.T) {
	c := NewCPU(0)
	var ticks atomic.Int32
	c.SetIntHandler(func(_ *CPU, sig Signal) {
		if sig == SignalTick {
			ticks.Add(1)
		}
	})

	ic := NewController([]*CPU{c}, 5*time.Millisecond, false)
	ic.Start()
	defer ic.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for ticks.Load() < 3 && time.Now().Before(deadline) {
		c.EnableInterrupts()
		c.DisableInterrupts()
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() < 3 {
		t.Fatalf("got %d periodic ticks, want at least 3", ticks.Load())
	}
}

func TestControllerOneShot(t *testing.T) {
	c := NewCPU(0)
	var ticks atomic.Int32
	c.SetIntHandler(func(_ *CPU, sig Signal) {
		if sig == SignalTick {
			ticks.Add(1)
		}
	})

	ic := NewController([]*CPU{c}, time.Millisecond, true)
	ic.Start()
	defer ic.Stop()

	ic.RequestInterruptIn(0, 2)
	deadline := time.Now().Add(3 * time.Second)
	for ticks.Load() == 0 && time.Now().Before(deadline) {
		c.EnableInterrupts()
		c.DisableInterrupts()
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() == 0 {
		t.Fatal("one-shot deadline never fired")
	}
}

func TestControllerCancelOneShot(t *testing.T) {
	c := NewCPU(0)
	var ticks atomic.Int32
	c.SetIntHandler(func(_ *CPU, sig Signal) { ticks.Add(1) })

	ic := NewController([]*CPU{c}, time.Millisecond, true)
	ic.Start()
	defer ic.Stop()

	ic.RequestInterruptIn(0, 500)
	ic.CancelPeriodicFallback(0)

	time.Sleep(20 * time.Millisecond)
	c.EnableInterrupts()
	c.DisableInterrupts()
	if n := ticks.Load(); n != 0 {
		t.Fatalf("cancelled one-shot still fired %d times", n)
	}
}

func TestControllerWakeupSignal(t *testing.T) {
	c := NewCPU(1)
	var woke atomic.Bool
	c.SetIntHandler(func(_ *CPU, sig Signal) {
		if sig == SignalWakeup {
			woke.Store(true)
		}
	})

	ic := NewController([]*CPU{NewCPU(0), c}, time.Millisecond, true)
	ic.SendWakeupSignal(1)
	c.EnableInterrupts()
	if !woke.Load() {
		t.Fatal("wakeup signal not delivered")
	}
}
