// File: sched/timer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Core-local timer queue: a deadline-sorted list of blocked sleepers.
// Linear insertion; sleeper counts are small. Under dynamic ticks the
// head of the list programs the next one-shot hardware deadline.

package sched

import (
	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/arch"
)

// setTimer blocks the calling core's current task until deadline (absolute
// ticks) and inserts it into the timer list.
func (k *Kernel) setTimer(c *arch.CPU, deadline uint64) error {
	flags := c.NestedDisable()
	defer c.NestedEnable(flags)

	q := k.queue(c)
	q.lock.Lock(c)
	defer q.lock.Unlock(c)

	id := q.current
	t := k.task(id)
	if t.Status() != api.StatusRunning {
		// Already blocked elsewhere; no timer will be set.
		return api.ErrInvalidArgument
	}
	t.setStatus(api.StatusBlocked)
	t.flags |= flagTimer
	t.deadline = deadline
	k.timerPushLocked(q, c.ID(), id)
	return nil
}

// timerPushLocked inserts id into the deadline-sorted timer list. Equal
// deadlines keep insertion order. Caller holds q.lock.
func (k *Kernel) timerPushLocked(q *readyQueue, core api.CoreID, id api.TaskID) {
	t := k.task(id)

	pos := q.timers.first
	for pos != api.NoTask && t.deadline >= k.task(pos).deadline {
		pos = k.task(pos).next
	}
	if pos == api.NoTask {
		k.listPushBack(&q.timers, id, memberTimer)
	} else {
		k.listInsertBefore(&q.timers, id, pos, memberTimer)
	}

	if q.timers.first == id {
		k.updateTimer(core, id)
	}
}

// timerRemoveLocked unlinks id from the timer list, reprogramming the
// one-shot deadline when the head changes. Caller holds q.lock.
func (k *Kernel) timerRemoveLocked(q *readyQueue, core api.CoreID, id api.TaskID) {
	wasHead := q.timers.first == id
	k.listRemove(&q.timers, id)
	if wasHead {
		k.updateTimer(core, q.timers.first)
	}
}

// updateTimer reprograms the core's next timer interrupt for the new
// head-of-list task, or cancels it when the list drained. No-op without
// dynamic ticks; the periodic tick polls instead.
func (k *Kernel) updateTimer(core api.CoreID, head api.TaskID) {
	if !k.cfg.DynamicTicks {
		return
	}
	if head == api.NoTask {
		// prevent spurious interrupts
		k.intc.CancelPeriodicFallback(core)
		return
	}
	deadline := k.task(head).deadline
	now := k.clock.Ticks()
	if deadline > now {
		k.intc.RequestInterruptIn(core, deadline-now)
	} else {
		// deadline already passed: fire as soon as possible
		k.intc.RequestInterruptIn(core, 1)
	}
}

// checkTimers wakes every head-of-list sleeper whose deadline elapsed.
// Runs at every tick on the owning core.
func (k *Kernel) checkTimers(c *arch.CPU) {
	q := k.queue(c)
	q.lock.Lock(c)
	defer q.lock.Unlock(c)

	now := k.clock.Ticks()
	for {
		head := q.timers.first
		if head == api.NoTask || k.task(head).deadline > now {
			break
		}
		// wakeupTask relocks recursively and pops the head, so the next
		// iteration sees a fresh first element.
		if err := k.wakeupTask(c, head); err != nil {
			k.fatal("core %d: timer head %d not blocked", c.ID(), head)
		}
		k.timeouts.Inc()
	}
}
