// File: sched/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Task control block. A task's id is its slot index in the table; links
// between tasks are slot indices, never pointers, and a membership tag
// records which list (if any) a task currently sits in so a dangling link
// can never be reused across list transitions.

package sched

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/arch"
)

type taskFlags uint8

const (
	// flagFPUInit: the task's FPU state has been initialized once.
	flagFPUInit taskFlags = 1 << iota
	// flagFPUUsed: the task touched the FPU since it last lost ownership.
	flagFPUUsed
	// flagTimer: the task sits in its core's timer list; deadline is valid.
	flagTimer
)

type listTag uint8

const (
	memberNone listTag = iota
	memberReady
	memberTimer
)

// Task is one slot of the global task table. All mutable fields are
// guarded by the owning core's queue lock, except allocation and release
// of the slot itself, which the table lock covers. The status field is
// additionally stored atomically: transitions stay ordered by the queue
// lock, but the allocation scan, GetTask and the probes read it from
// outside that lock, and a scan observing INVALID must also observe
// everything the reclaim wrote before it.
type Task struct {
	_ cpu.CacheLinePad

	id     api.TaskID
	status atomic.Uint32
	coreID api.CoreID
	prio   api.Priority
	flags  taskFlags

	// deadline is valid iff flagTimer is set.
	deadline   uint64
	startTick  uint64
	lastCycles uint64

	stack  api.Stack
	istack api.Stack

	// cont is the saved continuation; valid only while not running.
	cont *arch.Continuation

	space  *AddressSpace
	parent api.TaskID
	tls    any

	// Intrusive links, slot-indexed. A task is a member of at most one
	// list: a ready list, the timer list, or none.
	next, prev api.TaskID
	member     listTag

	fpu arch.FPUState
}

// ID returns the task's table slot.
func (t *Task) ID() api.TaskID { return t.id }

// Status returns the task's lifecycle state.
func (t *Task) Status() api.Status { return api.Status(t.status.Load()) }

func (t *Task) setStatus(s api.Status) { t.status.Store(uint32(s)) }

// Priority returns the task's priority.
func (t *Task) Priority() api.Priority { return t.prio }

// Core returns the core the task is bound to.
func (t *Task) Core() api.CoreID { return t.coreID }

// Parent returns the task that cloned this one, or api.NoTask.
func (t *Task) Parent() api.TaskID { return t.parent }

// AddressSpace is the heap/address-space descriptor of a task, exclusively
// owned unless the task is a lightweight clone sharing its parent's.
type AddressSpace struct {
	refs     atomic.Int32
	released atomic.Bool
}

func newAddressSpace() *AddressSpace {
	s := &AddressSpace{}
	s.refs.Store(1)
	return s
}

func (s *AddressSpace) retain() { s.refs.Add(1) }

func (s *AddressSpace) release() {
	if s.refs.Add(-1) == 0 {
		s.released.Store(true)
	}
}

// Released reports whether the last owner has been reclaimed.
func (s *AddressSpace) Released() bool { return s.released.Load() }
