// File: spin/ticket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FIFO ticket lock with recursive re-entry for the same task owner.

package spin

import (
	"runtime"
	"sync/atomic"

	"github.com/momentics/hioload-sched/api"
)

// hotSpins is how often a waiter spins before yielding the host thread.
const hotSpins = 64

// Lock is a FIFO ticket lock owned by a task. The zero value is unlocked.
// The owner field stores id+1 so that zero always means "unowned".
type Lock struct {
	ticket  atomic.Uint64 // next ticket to hand out
	serving atomic.Uint64 // tickets already served
	owner   atomic.Int32
	depth   int32
}

// Lock grants exclusive access in strict ticket order. Nested calls by
// the owning task only increment a counter. Callers without a task
// identity pass api.NoTask and always take a fresh ticket.
func (l *Lock) Lock(owner api.TaskID) {
	if owner != api.NoTask && l.owner.Load() == int32(owner)+1 {
		l.depth++
		return
	}

	t := l.ticket.Add(1)
	for spins := 0; l.serving.Load()+1 != t; spins++ {
		if spins > hotSpins {
			runtime.Gosched()
		}
	}

	if owner != api.NoTask {
		l.owner.Store(int32(owner) + 1)
	}
	l.depth = 1
}

// Unlock leaves the critical section. At depth zero the next ticket is
// served, releasing the longest-waiting spinner.
func (l *Lock) Unlock() {
	l.depth--
	if l.depth == 0 {
		l.owner.Store(0)
		l.serving.Add(1)
	}
}

// Locked reports whether the lock is currently held. Probe use only; the
// answer can be stale by the time it returns.
func (l *Lock) Locked() bool {
	return l.serving.Load() != l.ticket.Load()
}

// Holder returns the owning task, or api.NoTask when unowned or held by
// an anonymous caller.
func (l *Lock) Holder() api.TaskID {
	o := l.owner.Load()
	if o == 0 {
		return api.NoTask
	}
	return api.TaskID(o - 1)
}
