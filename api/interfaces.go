// File: api/interfaces.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Boundary contracts toward the external collaborators of the scheduler
// core: the memory manager, the interrupt controller and the time source.
// Default in-process implementations live in packages mm and arch.

package api

// Stack is an opaque handle to a guarded stack region handed out by the
// memory manager. The scheduler never inspects its contents.
type Stack interface {
	// Size returns the usable size of the stack in bytes.
	Size() int
}

// StackProvider is the slice of the memory manager the scheduler consumes:
// allocate and release guarded stacks, nothing else.
type StackProvider interface {
	// AllocStack returns a guarded stack of at least size bytes.
	AllocStack(size int) (Stack, error)

	// ReleaseStack returns a stack obtained from AllocStack.
	ReleaseStack(s Stack, size int)
}

// IntController is the slice of the interrupt/APIC driver the scheduler
// consumes. The driver calls back into the scheduler on tick and signal
// receipt through the per-core interrupt handler installed by sched.
type IntController interface {
	// RequestInterruptIn arms (or re-arms) the one-shot timer of the given
	// core to fire in ticks clock ticks.
	RequestInterruptIn(core CoreID, ticks uint64)

	// CancelPeriodicFallback stops any pending timer interrupt of the core.
	// Used when the core-local timer queue runs empty under dynamic ticks.
	CancelPeriodicFallback(core CoreID)

	// SendWakeupSignal delivers an inter-processor wakeup signal to the
	// given core, prompting it to re-evaluate its ready queue. Signals are
	// never coalesced: each one causes a scheduler pass on the target.
	SendWakeupSignal(core CoreID)
}

// Clock is the monotonic time source of the kernel.
type Clock interface {
	// Ticks returns the monotonic tick counter since boot.
	Ticks() uint64

	// Cycles returns a fine-grained monotonic cycle counter.
	Cycles() uint64

	// TickFreq returns the tick frequency in Hz.
	TickFreq() uint64
}
