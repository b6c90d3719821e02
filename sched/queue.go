// File: sched/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-core ready queue: one FIFO list per priority level, a bitmap with
// bit p set iff list p is non-empty, the deadline-ordered timer list, the
// idle task, the old-task slot of the two-phase reclamation protocol and
// the lazy FPU owner. One IRQ-safe ticket lock guards all of it.

package sched

import (
	"math/bits"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/spin"
)

type readyQueue struct {
	_ cpu.CacheLinePad

	idle    api.TaskID
	current api.TaskID

	// oldTask is the outgoing task of an in-flight context switch; it is
	// re-enqueued or reclaimed only after the switch commits.
	oldTask api.TaskID

	fpuOwner api.TaskID

	prioBitmap uint32
	nrReady    atomic.Uint32

	// lists[p-1] holds the READY tasks of priority p; the idle task
	// (priority 0) has no list.
	lists  [api.MaxPriority]taskList
	timers taskList

	lock spin.IrqLock

	_ cpu.CacheLinePad
}

func (q *readyQueue) init(idle api.TaskID) {
	q.idle = idle
	q.current = idle
	q.oldTask = api.NoTask
	q.fpuOwner = api.NoTask
	for i := range q.lists {
		q.lists[i].init()
	}
	q.timers.init()
}

// highestPrio returns the best ready priority, or 0 when only the idle
// task is runnable. O(1) via the bitmap.
func (q *readyQueue) highestPrio() api.Priority {
	if q.prioBitmap == 0 {
		return api.IdlePriority
	}
	return api.Priority(bits.Len32(q.prioBitmap) - 1)
}

// pushReadyLocked appends a READY task to the tail of its priority list.
// Caller holds q.lock.
func (k *Kernel) pushReadyLocked(q *readyQueue, id api.TaskID) {
	t := k.task(id)
	k.listPushBack(&q.lists[t.prio-1], id, memberReady)
	q.prioBitmap |= 1 << t.prio
	q.nrReady.Add(1)
}

// removeReadyLocked unlinks a READY task, clearing the priority bit if
// its list drained. Caller holds q.lock.
func (k *Kernel) removeReadyLocked(q *readyQueue, id api.TaskID) {
	t := k.task(id)
	l := &q.lists[t.prio-1]
	k.listRemove(l, id)
	if l.empty() {
		q.prioBitmap &^= 1 << t.prio
	}
	q.nrReady.Add(^uint32(0))
}

// popReadyLocked pops the FIFO head of priority prio. Caller holds q.lock.
func (k *Kernel) popReadyLocked(q *readyQueue, prio api.Priority) api.TaskID {
	l := &q.lists[prio-1]
	id := k.listPopFront(l)
	if id == api.NoTask {
		return api.NoTask
	}
	if l.empty() {
		q.prioBitmap &^= 1 << prio
	}
	q.nrReady.Add(^uint32(0))
	return id
}
