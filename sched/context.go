// File: sched/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TaskContext is the in-task API surface. Every operation that touches
// scheduler state runs on the task's own core with interrupts handled by
// the call itself, which is why the context carries its CPU handle.

package sched

import (
	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/arch"
)

// TaskContext is handed to every entry point and stays valid until the
// task exits. It must only be used from the task's own goroutine.
type TaskContext struct {
	k  *Kernel
	c  *arch.CPU
	id api.TaskID
}

// Kernel returns the owning kernel.
func (tc *TaskContext) Kernel() *Kernel { return tc.k }

// ID returns the calling task's id.
func (tc *TaskContext) ID() api.TaskID { return tc.id }

// Core returns the core this task is bound to.
func (tc *TaskContext) Core() api.CoreID { return tc.c.ID() }

// Clock returns the kernel clock.
func (tc *TaskContext) Clock() api.Clock { return tc.k.clock }

// CPU returns the task's virtual core, for IRQ-safe locks that need the
// core handle.
func (tc *TaskContext) CPU() *arch.CPU { return tc.c }

// Exit terminates the calling task with the given code. Never returns.
func (tc *TaskContext) Exit(code int) {
	panic(exitSignal{code: code})
}

// Yield gives up the core voluntarily. A READY task of equal priority
// gets to run; the caller goes to the tail of its priority list.
func (tc *TaskContext) Yield() {
	tc.k.rescheduleOn(tc.c, true)
}

// Reschedule runs a scheduling pass without yielding to equals. The
// caller keeps the core unless a strictly higher priority task is ready.
func (tc *TaskContext) Reschedule() {
	tc.k.rescheduleOn(tc.c, false)
}

// BlockCurrent marks the caller BLOCKED but does not switch away; the
// caller must follow up with Reschedule. Splitting the two lets waiters
// register under an external lock before actually leaving the core, so a
// wakeup racing with the block is never lost: a wakeup that lands before
// Reschedule just puts the task back in its ready list, and the pass
// reselects it.
func (tc *TaskContext) BlockCurrent() error {
	was := tc.c.NestedDisable()
	err := tc.k.blockTask(tc.c, tc.id)
	tc.c.NestedEnable(was)
	return err
}

// SetTimer marks the caller BLOCKED with a wakeup at the absolute tick
// deadline and inserts it into the core's timer list. The caller must
// follow up with Reschedule; an already elapsed deadline fires at the
// next timer check.
func (tc *TaskContext) SetTimer(deadline uint64) error {
	return tc.k.setTimer(tc.c, deadline)
}

// Sleep blocks the caller for at least the given number of ticks.
func (tc *TaskContext) Sleep(ticks uint64) error {
	if err := tc.SetTimer(tc.k.clock.Ticks() + ticks); err != nil {
		return err
	}
	tc.Reschedule()
	return nil
}

// WakeupTask moves a BLOCKED task back to READY. Waking a task on another
// core signals that core.
func (tc *TaskContext) WakeupTask(id api.TaskID) error {
	was := tc.c.NestedDisable()
	err := tc.k.wakeupTask(tc.c, id)
	tc.c.NestedEnable(was)
	return err
}

// CreateTask creates a new task bound to the given core.
func (tc *TaskContext) CreateTask(ep EntryFunc, arg any, prio api.Priority, core api.CoreID) (api.TaskID, error) {
	return tc.k.createTask(tc.c, ep, arg, prio, core, api.NoTask, nil)
}

// CreateKernelTask creates a task on the least recently used core,
// clamping out-of-range priorities to normal.
func (tc *TaskContext) CreateKernelTask(ep EntryFunc, arg any, prio api.Priority) (api.TaskID, error) {
	return tc.k.createTask(tc.c, ep, arg, clampKernelPriority(prio), tc.k.nextCoreID(), api.NoTask, nil)
}

// CloneTask creates a task sharing the caller's address space. The child
// records the caller as its parent and lands on the next core in
// round-robin order.
func (tc *TaskContext) CloneTask(ep EntryFunc, arg any, prio api.Priority) (api.TaskID, error) {
	space := tc.k.task(tc.id).space
	space.retain()
	id, err := tc.k.createTask(tc.c, ep, arg, prio, tc.k.nextCoreID(), tc.id, space)
	if err != nil {
		space.release()
	}
	return id, err
}

// FPU claims the core's floating point unit for the caller and returns
// it. The first claim initializes fresh state; later claims restore what
// the task last saved.
func (tc *TaskContext) FPU() *arch.FPU {
	was := tc.c.NestedDisable()
	tc.k.fpuHandler(tc.c, tc.id)
	tc.c.NestedEnable(was)
	return tc.c.FPU()
}

// TLS returns the task-local slot.
func (tc *TaskContext) TLS() any { return tc.k.task(tc.id).tls }

// SetTLS stores v in the task-local slot.
func (tc *TaskContext) SetTLS(v any) { tc.k.task(tc.id).tls = v }

// Poll delivers any pending interrupts to this core. Long-running loops
// without blocking calls should poll periodically.
func (tc *TaskContext) Poll() { tc.c.Poll() }
