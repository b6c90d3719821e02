// File: arch/continuation.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Continuations: the opaque saved execution state of a suspended task.
// Implemented as a goroutine parked on a one-slot resume channel. A fresh
// continuation is indistinguishable from an interrupted one to the resume
// primitive; the started sentinel lets other subsystems tell a never-run
// frame from one interrupted mid-flight.

package arch

import "sync/atomic"

// Continuation is the saved execution state of one task.
type Continuation struct {
	resume  chan struct{}
	started atomic.Bool
}

// NewContinuation builds the initial continuation of a task. The
// trampoline runs on the first resume; it must initialize task-local
// state, invoke the entry point exactly once, and return control to the
// kernel on completion.
func NewContinuation(trampoline func()) *Continuation {
	c := &Continuation{resume: make(chan struct{}, 1)}
	go func() {
		<-c.resume
		c.started.Store(true)
		trampoline()
	}()
	return c
}

// AdoptCurrent wraps the calling goroutine in a continuation, so the
// bootstrap path of a core (its idle loop) can be switched away from like
// any other task.
func AdoptCurrent() *Continuation {
	c := &Continuation{resume: make(chan struct{}, 1)}
	c.started.Store(true)
	return c
}

// Started reports whether the continuation has ever run. False means an
// initial frame that has not reached its trampoline yet.
func (c *Continuation) Started() bool { return c.started.Load() }

// Switch atomically saves the caller as cur and resumes next. The call
// returns when something switches back to cur. The one-slot channel keeps
// a wakeup posted between resume and park from being lost.
func Switch(cur, next *Continuation) {
	next.resume <- struct{}{}
	<-cur.resume
}

// Handoff resumes next without saving the caller. Used on the final
// switch away from a finished task; the calling goroutine must unwind
// without touching core state again.
func Handoff(next *Continuation) {
	next.resume <- struct{}{}
}
