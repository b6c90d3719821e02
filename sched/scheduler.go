// File: sched/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The per-core scheduling decision and the continuation-switch protocol
// around it, including the two-phase reclamation of finished tasks: the
// outgoing task is stashed in the queue's old-task slot and re-enqueued
// or reclaimed only after the switch has committed, because its saved
// continuation is not valid before that point.

package sched

import (
	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/arch"
)

// switchPlan is the scheduler's decision to switch: resume to, saving the
// caller as from.
type switchPlan struct {
	from, to     *arch.Continuation
	fromFinished bool
}

// schedule picks the next task for the calling core. Called with
// interrupts disabled; returns nil when no switch is needed. A running
// task normally keeps the core against equal-priority contenders;
// yieldEqual relaxes that so an equal-priority ready task may take over
// (voluntary yield, expired time slice).
func (k *Kernel) schedule(c *arch.CPU, yieldEqual bool) *switchPlan {
	q := k.queue(c)
	q.lock.Lock(c)
	defer q.lock.Unlock(c)

	currID := q.current
	curr := k.task(currID)

	if curr.Status() == api.StatusFinished {
		q.oldTask = currID
	} else {
		q.oldTask = api.NoTask
	}

	// Shutdown: only the idle task gets the core from here on.
	if k.shutdown.Load() {
		if curr.Status() == api.StatusIdle {
			return nil
		}
		if curr.Status() == api.StatusRunning {
			curr.setStatus(api.StatusReady)
			q.oldTask = currID
		}
		return k.makeCurrent(q, c, q.idle, curr)
	}

	prio := q.highestPrio()
	if prio == api.IdlePriority {
		// Nothing ready. Keep running, or fall back to idle.
		if curr.Status() == api.StatusRunning || curr.Status() == api.StatusIdle {
			return nil
		}
		return k.makeCurrent(q, c, q.idle, curr)
	}

	if curr.Status() == api.StatusRunning {
		if curr.prio > prio || (curr.prio == prio && !yieldEqual) {
			return nil
		}
		// Demote; re-enqueued by finishSwitch after the switch commits.
		curr.setStatus(api.StatusReady)
		q.oldTask = currID
	}

	id := k.popReadyLocked(q, prio)
	if id == api.NoTask {
		k.fatal("core %d: priority %d set in bitmap but list empty", c.ID(), prio)
	}
	if k.task(id).Status() == api.StatusInvalid {
		k.fatal("core %d: selected invalid task %d (current %d)", c.ID(), id, currID)
	}
	return k.makeCurrent(q, c, id, curr)
}

// makeCurrent installs id as the core's current task. Caller holds q.lock.
func (k *Kernel) makeCurrent(q *readyQueue, c *arch.CPU, id api.TaskID, from *Task) *switchPlan {
	t := k.task(id)
	if t.Status() != api.StatusIdle {
		t.setStatus(api.StatusRunning)
		t.lastCycles = k.clock.Cycles()
	}
	q.current = id
	c.SetCurrentTask(id)
	k.logf("core %d: switching from task %d to task %d", c.ID(), from.id, id)
	return &switchPlan{
		from:         from.cont,
		to:           t.cont,
		fromFinished: from.Status() == api.StatusFinished,
	}
}

// rescheduleOn disables interrupts, asks for a decision and performs the
// switch. The resumed side (here, or a fresh task's trampoline) runs
// finishSwitch before anything else.
func (k *Kernel) rescheduleOn(c *arch.CPU, yieldEqual bool) {
	flags := c.NestedDisable()
	if plan := k.schedule(c, yieldEqual); plan != nil {
		k.ctxSwitches.Inc()
		if plan.fromFinished {
			// Final switch of a finished task: nothing to save, and this
			// goroutine must not touch core state again.
			arch.Handoff(plan.to)
			return
		}
		arch.Switch(plan.from, plan.to)
		k.finishSwitch(c)
	}
	c.NestedEnable(flags)
}

// finishSwitch completes the previous switch on this core: the stashed
// outgoing task is re-enqueued if still READY, or reclaimed if FINISHED.
// Runs strictly after the stack switch, on the incoming task.
func (k *Kernel) finishSwitch(c *arch.CPU) {
	q := k.queue(c)
	q.lock.Lock(c)
	if old := q.oldTask; old != api.NoTask {
		q.oldTask = api.NoTask
		t := k.task(old)
		switch t.Status() {
		case api.StatusFinished:
			k.reclaimLocked(q, t)
		case api.StatusReady:
			k.pushReadyLocked(q, old)
		}
	}
	q.lock.Unlock(c)
}

// reclaimLocked releases a finished task's resources and invalidates its
// slot. Caller holds the core's queue lock; the task's goroutine has
// unwound past its last kernel touch.
func (k *Kernel) reclaimLocked(q *readyQueue, t *Task) {
	k.logf("reclaiming task %d", t.id)

	if t.stack != nil {
		k.stacks.ReleaseStack(t.stack, k.cfg.StackSize)
		t.stack = nil
	}
	if t.istack != nil {
		k.stacks.ReleaseStack(t.istack, k.cfg.IStackSize)
		t.istack = nil
	}
	if q.fpuOwner == t.id {
		q.fpuOwner = api.NoTask
	}
	if t.space != nil {
		t.space.release()
		t.space = nil
	}
	t.cont = nil
	t.tls = nil
	t.flags = 0
	t.parent = api.NoTask
	t.member = memberNone
	t.next = api.NoTask
	t.prev = api.NoTask
	// The INVALID store goes last: a table scan that observes it also
	// observes the releases above.
	t.setStatus(api.StatusInvalid)
}

// blockTask moves a RUNNING task to BLOCKED. A task that is current on
// its core is in no list; one stashed for re-enqueue is unlinked here.
func (k *Kernel) blockTask(c *arch.CPU, id api.TaskID) error {
	if !k.validID(id) {
		return api.ErrInvalidArgument
	}
	flags := c.NestedDisable()
	defer c.NestedEnable(flags)

	t := k.task(id)
	q := &k.queues[t.coreID]
	q.lock.Lock(c)
	defer q.lock.Unlock(c)

	if t.Status() != api.StatusRunning {
		return api.ErrInvalidArgument
	}
	t.setStatus(api.StatusBlocked)
	if t.member == memberReady {
		k.removeReadyLocked(q, id)
	}
	return nil
}

// wakeupTask moves a BLOCKED task back to READY on its home core,
// removing it from the timer list first if it was sleeping. A cross-core
// wakeup also signals the target core so it re-evaluates promptly.
func (k *Kernel) wakeupTask(c *arch.CPU, id api.TaskID) error {
	if !k.validID(id) {
		return api.ErrInvalidArgument
	}
	flags := c.NestedDisable()

	t := k.task(id)
	core := t.coreID
	q := &k.queues[core]
	q.lock.Lock(c)

	if t.Status() != api.StatusBlocked {
		q.lock.Unlock(c)
		c.NestedEnable(flags)
		return api.ErrInvalidArgument
	}
	k.logf("waking task %d on core %d", id, core)
	t.setStatus(api.StatusReady)
	if t.flags&flagTimer != 0 {
		t.flags &^= flagTimer
		k.timerRemoveLocked(q, core, id)
	}
	k.pushReadyLocked(q, id)
	q.lock.Unlock(c)

	k.wakeups.Inc()
	if core != c.ID() {
		k.intc.SendWakeupSignal(core)
	}
	c.NestedEnable(flags)
	return nil
}
