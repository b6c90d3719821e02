// File: spin/irqsave.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// IRQ-safe ticket lock. Interrupts are masked before spinning and the
// pre-acquisition flag state is restored only at the outermost unlock.
// Ownership is tracked by core id: an interrupt handler has no task
// identity but runs on the same core as the task it interrupted, so its
// nested acquisition is recognized as re-entry.

package spin

import (
	"runtime"
	"sync/atomic"

	"github.com/momentics/hioload-sched/arch"
)

// IrqLock is an interrupt-masking ticket lock owned by a core. The zero
// value is unlocked; the owner field stores core+1 so zero means unowned.
type IrqLock struct {
	ticket  atomic.Uint64
	serving atomic.Uint64
	owner   atomic.Int32
	depth   int32
	flags   bool // interrupt-enable state at first acquisition
}

// Lock masks interrupts on c and grants exclusive access in ticket order.
// Re-entry from the owning core (task or interrupt context) nests.
func (l *IrqLock) Lock(c *arch.CPU) {
	was := c.NestedDisable()
	if l.owner.Load() == int32(c.ID())+1 {
		l.depth++
		return
	}

	t := l.ticket.Add(1)
	for spins := 0; l.serving.Load()+1 != t; spins++ {
		if spins > hotSpins {
			runtime.Gosched()
		}
	}

	l.owner.Store(int32(c.ID()) + 1)
	l.flags = was
	l.depth = 1
}

// Unlock leaves the critical section. The outermost unlock releases the
// next waiter and restores the interrupt flag captured on entry.
func (l *IrqLock) Unlock(c *arch.CPU) {
	l.depth--
	if l.depth == 0 {
		was := l.flags
		l.flags = false
		l.owner.Store(0)
		l.serving.Add(1)
		c.NestedEnable(was)
	}
}
