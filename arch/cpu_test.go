// File: arch/cpu_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package arch

import (
	"testing"
	"time"
)

func TestSignalDeliveryRespectsMask(t *testing.T) {
	c := NewCPU(0)
	var got []Signal
	c.SetIntHandler(func(_ *CPU, sig Signal) { got = append(got, sig) })

	c.Signal(SignalTick)
	c.Signal(SignalWakeup)
	if len(got) != 0 {
		t.Fatalf("signals delivered with interrupts masked: %v", got)
	}

	c.EnableInterrupts()
	if len(got) != 2 || got[0] != SignalTick || got[1] != SignalWakeup {
		t.Fatalf("delivery = %v, want [Tick Wakeup] in order", got)
	}
}

func TestHandlerRunsMasked(t *testing.T) {
	c := NewCPU(0)
	masked := true
	c.SetIntHandler(func(c *CPU, _ Signal) { masked = !c.IrqEnabled() })

	c.EnableInterrupts()
	c.Signal(SignalTick)
	c.Poll()
	if !masked {
		t.Fatal("handler observed interrupts enabled")
	}
	if !c.IrqEnabled() {
		t.Fatal("interrupt flag not restored after delivery")
	}
}

func TestPollIsNoOpWhenMasked(t *testing.T) {
	c := NewCPU(0)
	fired := false
	c.SetIntHandler(func(_ *CPU, _ Signal) { fired = true })

	c.Signal(SignalTick)
	c.Poll()
	if fired {
		t.Fatal("Poll delivered with interrupts masked")
	}
}

func TestWaitForInterruptWakesOnSignal(t *testing.T) {
	c := NewCPU(0)
	delivered := make(chan Signal, 1)
	c.SetIntHandler(func(_ *CPU, sig Signal) { delivered <- sig })

	done := make(chan struct{})
	go func() {
		c.WaitForInterrupt()
		close(done)
	}()

	// Let the core reach the halted state, then wake it.
	for !c.Halted() {
		time.Sleep(time.Millisecond)
	}
	c.Signal(SignalWakeup)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForInterrupt did not wake on signal")
	}
	if sig := <-delivered; sig != SignalWakeup {
		t.Fatalf("delivered %v, want SignalWakeup", sig)
	}
	if c.IrqEnabled() {
		t.Fatal("WaitForInterrupt must return with interrupts masked")
	}
}

func TestSignalsAreNotCoalesced(t *testing.T) {
	c := NewCPU(0)
	count := 0
	c.SetIntHandler(func(_ *CPU, _ Signal) { count++ })

	for i := 0; i < 5; i++ {
		c.Signal(SignalWakeup)
	}
	c.EnableInterrupts()
	if count != 5 {
		t.Fatalf("delivered %d signals, want 5", count)
	}
}
