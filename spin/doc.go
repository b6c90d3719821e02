// Package spin
// Author: momentics <momentics@gmail.com>
//
// Ticket locks for the scheduler core. Lock is recursive and tracks
// ownership by task id; IrqLock additionally masks interrupts for the
// duration of the critical section and tracks ownership by core id, so an
// interrupt handler is recognized as the same acquirer as the task it
// interrupted. Acquisition never fails: callers spin in strict FIFO
// ticket order, which keeps both variants usable in interrupt context
// where blocking is illegal.
package spin
