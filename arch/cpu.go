// File: arch/cpu.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One virtual core: interrupt-enable flag, signal mailbox, halt/wake
// protocol and the current-task slot used for lock ownership tracking.

package arch

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-sched/api"
)

// Signal is an asynchronous event delivered to a core.
type Signal uint8

const (
	// SignalTick is a timer interrupt (periodic or one-shot deadline).
	SignalTick Signal = iota
	// SignalWakeup is an inter-processor wakeup signal.
	SignalWakeup
)

// IntHandler processes one signal on the receiving core. It runs with
// interrupts masked and may context-switch away before returning.
type IntHandler func(c *CPU, sig Signal)

// CPU models one virtual core. The irq flag and FPU are owned by the
// goroutine currently executing as this core; ownership moves with every
// continuation switch. The mailbox side is safe to touch from anywhere.
type CPU struct {
	id      api.CoreID
	handler IntHandler

	// Owned by the executing goroutine, never shared.
	irqOn bool
	fpu   FPU

	mu      sync.Mutex
	pending *queue.Queue
	halted  bool
	wake    chan struct{}

	curTask atomic.Int32
}

// NewCPU creates a core in the interrupts-disabled state.
func NewCPU(id api.CoreID) *CPU {
	c := &CPU{
		id:      id,
		pending: queue.New(),
		wake:    make(chan struct{}, 1),
	}
	c.curTask.Store(int32(api.NoTask))
	return c
}

// ID returns the core id.
func (c *CPU) ID() api.CoreID { return c.id }

// SetIntHandler installs the interrupt handler. Must be called before any
// signal can arrive; the scheduler does this during core bring-up.
func (c *CPU) SetIntHandler(h IntHandler) { c.handler = h }

// FPU returns the core's floating-point register file.
func (c *CPU) FPU() *FPU { return &c.fpu }

// SetCurrentTask records the task now executing on this core.
func (c *CPU) SetCurrentTask(id api.TaskID) { c.curTask.Store(int32(id)) }

// CurrentTask returns the task currently executing on this core.
func (c *CPU) CurrentTask() api.TaskID { return api.TaskID(c.curTask.Load()) }

// IrqEnabled reports the interrupt-enable flag.
func (c *CPU) IrqEnabled() bool { return c.irqOn }

// Halted reports whether the core is halted waiting for a signal.
func (c *CPU) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}

// DisableInterrupts masks interrupts.
func (c *CPU) DisableInterrupts() { c.irqOn = false }

// EnableInterrupts unmasks interrupts and delivers anything pending.
func (c *CPU) EnableInterrupts() {
	c.irqOn = true
	c.deliver()
}

// NestedDisable masks interrupts and returns the previous flag state, for
// save/restore pairs that may nest.
func (c *CPU) NestedDisable() bool {
	was := c.irqOn
	c.irqOn = false
	return was
}

// NestedEnable restores the flag state captured by NestedDisable.
func (c *CPU) NestedEnable(was bool) {
	if was {
		c.EnableInterrupts()
	}
}

// Poll is an explicit preemption point: delivers pending signals if
// interrupts are enabled.
func (c *CPU) Poll() {
	if c.irqOn {
		c.deliver()
	}
}

// Signal posts sig to the core's mailbox and wakes it if halted. Safe to
// call from any goroutine. Signals are never coalesced.
func (c *CPU) Signal(sig Signal) {
	c.mu.Lock()
	c.pending.Add(sig)
	wasHalted := c.halted
	c.halted = false
	c.mu.Unlock()

	if wasHalted {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
}

// WaitForInterrupt atomically enables interrupts and halts until a signal
// arrives, then delivers all pending signals. It returns with interrupts
// disabled again. Only the idle loop uses this.
func (c *CPU) WaitForInterrupt() {
	c.mu.Lock()
	for c.pending.Length() == 0 {
		c.halted = true
		c.mu.Unlock()
		<-c.wake
		c.mu.Lock()
	}
	c.halted = false
	c.mu.Unlock()

	c.EnableInterrupts()
	c.DisableInterrupts()
}

// deliver pops and handles pending signals one at a time. The handler runs
// with interrupts masked; it may park this goroutine mid-loop, in which
// case the loop finishes when the task is switched back in.
func (c *CPU) deliver() {
	for {
		c.mu.Lock()
		if c.pending.Length() == 0 {
			c.mu.Unlock()
			return
		}
		sig := c.pending.Remove().(Signal)
		c.mu.Unlock()

		c.irqOn = false
		if c.handler != nil {
			c.handler(c, sig)
		}
		c.irqOn = true
	}
}
