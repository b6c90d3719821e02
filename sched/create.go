// File: sched/create.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Task creation, cloning and exit. Stacks are allocated before the table
// lock is taken and unwound on any failure; a task whose creation fails
// never appears in a ready queue.

package sched

import (
	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/arch"
)

// EntryFunc is a task entry point. The trampoline invokes it exactly once
// with a fresh task context and the creation argument.
type EntryFunc func(tc *TaskContext, arg any)

// exitSignal unwinds a task goroutine out of its entry point.
type exitSignal struct{ code int }

// Boot creates the first task on core 0. Boot-time API: it borrows core
// 0's interrupt context, which only works while no core loop runs, so it
// is refused once Start has been called.
func (k *Kernel) Boot(ep EntryFunc, arg any, prio api.Priority) (api.TaskID, error) {
	if k.started.Load() {
		return api.NoTask, api.ErrInvalidArgument
	}
	return k.createTask(k.cpus[0], ep, arg, prio, 0, api.NoTask, nil)
}

// CreateTask creates a task bound to the given core. Boot-time API like
// Boot; after Start, create through a TaskContext.
func (k *Kernel) CreateTask(ep EntryFunc, arg any, prio api.Priority, core api.CoreID) (api.TaskID, error) {
	if k.started.Load() {
		return api.NoTask, api.ErrInvalidArgument
	}
	return k.createTask(k.cpus[0], ep, arg, prio, core, api.NoTask, nil)
}

// CreateKernelTask creates a task on the next core in round-robin order,
// clamping an out-of-range priority to normal. Boot-time API like Boot.
func (k *Kernel) CreateKernelTask(ep EntryFunc, arg any, prio api.Priority) (api.TaskID, error) {
	if k.started.Load() {
		return api.NoTask, api.ErrInvalidArgument
	}
	return k.createTask(k.cpus[0], ep, arg, clampKernelPriority(prio), k.nextCoreID(), api.NoTask, nil)
}

// createTask allocates a slot, builds the initial continuation and
// enqueues the task READY on its home core. space == nil allocates a
// fresh exclusive address space; otherwise the caller has retained it.
func (k *Kernel) createTask(c *arch.CPU, ep EntryFunc, arg any, prio api.Priority, core api.CoreID, parent api.TaskID, space *AddressSpace) (api.TaskID, error) {
	if ep == nil || prio == api.IdlePriority || prio > api.MaxPriority {
		return api.NoTask, api.ErrInvalidArgument
	}
	if core < 0 || int(core) >= len(k.cpus) {
		return api.NoTask, api.ErrInvalidArgument
	}
	if k.shutdown.Load() {
		return api.NoTask, api.ErrShuttingDown
	}

	stack, err := k.stacks.AllocStack(k.cfg.StackSize)
	if err != nil {
		return api.NoTask, err
	}
	istack, err := k.stacks.AllocStack(k.cfg.IStackSize)
	if err != nil {
		k.stacks.ReleaseStack(stack, k.cfg.StackSize)
		return api.NoTask, err
	}

	k.tableLock.Lock(c)

	id := api.NoTask
	for i := range k.tasks {
		if k.tasks[i].Status() == api.StatusInvalid {
			id = api.TaskID(i)
			break
		}
	}
	if id == api.NoTask {
		k.tableLock.Unlock(c)
		k.stacks.ReleaseStack(istack, k.cfg.IStackSize)
		k.stacks.ReleaseStack(stack, k.cfg.StackSize)
		return api.NoTask, api.ErrResourceExhausted
	}

	t := k.task(id)
	t.coreID = core
	t.prio = prio
	t.flags = 0
	t.deadline = 0
	t.startTick = k.clock.Ticks()
	t.lastCycles = 0
	t.stack = stack
	t.istack = istack
	t.parent = parent
	t.tls = nil
	t.fpu = arch.FPUState{}
	if space == nil {
		space = newAddressSpace()
	}
	t.space = space
	t.cont = arch.NewContinuation(k.trampoline(id, ep, arg))
	// Publish READY only after the slot is fully initialized; unlocked
	// readers that observe it see a complete task.
	t.setStatus(api.StatusReady)

	q := &k.queues[core]
	q.lock.Lock(c)
	k.pushReadyLocked(q, id)
	q.lock.Unlock(c)

	k.tableLock.Unlock(c)
	k.liveTasks.Add(1)
	k.logf("created task %d (prio %d) on core %d", id, prio, core)

	// A remote or sleeping core re-evaluates on its next signal.
	if core != c.ID() {
		k.intc.SendWakeupSignal(core)
	} else if k.cpus[core].Halted() {
		k.intc.SendWakeupSignal(core)
	}

	return id, nil
}

// trampoline builds the body of a task's initial continuation: commit the
// previous switch, set up task-local state, run the entry point once and
// exit on return.
func (k *Kernel) trampoline(id api.TaskID, ep EntryFunc, arg any) func() {
	return func() {
		t := k.task(id)
		c := k.cpus[t.coreID]
		k.finishSwitch(c)

		tc := &TaskContext{k: k, c: c, id: id}
		code := 0
		func() {
			defer func() {
				if r := recover(); r != nil {
					es, ok := r.(exitSignal)
					if !ok {
						panic(r)
					}
					code = es.code
				}
			}()
			c.EnableInterrupts()
			ep(tc, arg)
		}()

		k.exitCurrent(c, code)
	}
}

// exitCurrent finishes the calling task and hands the core off. The slot
// is reclaimed by the next scheduling pass on this core, never by the
// task itself, so it cannot free the stack it still runs on.
func (k *Kernel) exitCurrent(c *arch.CPU, code int) {
	c.DisableInterrupts()

	q := k.queue(c)
	t := k.task(q.current)
	if t.Status() == api.StatusIdle {
		k.fatal("core %d: idle task tried to exit", c.ID())
	}
	k.logf("task %d exiting with code %d", t.id, code)

	k.lastExit.Store(int32(code))
	q.lock.Lock(c)
	t.setStatus(api.StatusFinished)
	q.lock.Unlock(c)

	remaining := k.liveTasks.Add(-1)
	if remaining == 0 && k.cfg.AutoShutdown {
		k.Shutdown()
	}

	plan := k.schedule(c, false)
	if plan == nil {
		k.fatal("core %d: no task to take over from exiting task %d", c.ID(), t.id)
	}
	k.ctxSwitches.Inc()
	arch.Handoff(plan.to)
	// Goroutine unwinds; the slot is now owned by the old-task protocol.
}

// nextCoreID distributes unpinned tasks across cores round-robin.
func (k *Kernel) nextCoreID() api.CoreID {
	n := k.nextCore.Add(1)
	return api.CoreID((n - 1) % int32(len(k.cpus)))
}

// GetTask returns a read-only view of a live task.
func (k *Kernel) GetTask(id api.TaskID) (*Task, error) {
	if !k.validID(id) {
		return nil, api.ErrNotFound
	}
	t := k.task(id)
	if t.Status() == api.StatusInvalid {
		return nil, api.ErrInvalidArgument
	}
	return t, nil
}
