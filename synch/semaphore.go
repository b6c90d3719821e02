// File: synch/semaphore.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Counting semaphore. Waiters park in a fixed-capacity ring in FIFO
// order; a waiter that times out leaves a tombstone in its slot, which
// Post skips. The wait path registers and blocks while still holding the
// semaphore lock and only switches away after releasing it, so a Post
// racing with a fresh waiter can never lose the wakeup: the wakeup lands
// before the waiter's Reschedule and simply puts it back in its ready
// list.

package synch

import (
	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/sched"
	"github.com/momentics/hioload-sched/spin"
)

// DefaultWaiters is the waiter ring capacity used when none is given.
const DefaultWaiters = 64

// Semaphore is a counting semaphore with sleeping waiters.
type Semaphore struct {
	lock spin.IrqLock

	value int

	// ring holds waiter ids between head and tail; NoTask marks a slot
	// whose waiter timed out before being posted.
	ring []api.TaskID
	head int
	tail int
	used int

	destroyed bool
}

// NewSemaphore creates a semaphore with the given initial count. waiters
// bounds how many tasks may block on it at once; waiters <= 0 selects
// DefaultWaiters.
func NewSemaphore(value int, waiters int) *Semaphore {
	if waiters <= 0 {
		waiters = DefaultWaiters
	}
	s := &Semaphore{
		value: value,
		ring:  make([]api.TaskID, waiters),
	}
	for i := range s.ring {
		s.ring[i] = api.NoTask
	}
	return s
}

// Value returns the current count. Advisory only.
func (s *Semaphore) Value(tc *sched.TaskContext) int {
	c := tc.CPU()
	s.lock.Lock(c)
	v := s.value
	s.lock.Unlock(c)
	return v
}

// TryWait decrements the count without blocking. Returns ErrWouldBlock
// when the count is zero.
func (s *Semaphore) TryWait(tc *sched.TaskContext) error {
	c := tc.CPU()
	s.lock.Lock(c)
	defer s.lock.Unlock(c)

	if s.destroyed {
		return api.ErrInvalidArgument
	}
	if s.value > 0 {
		s.value--
		return nil
	}
	return api.ErrWouldBlock
}

// Wait decrements the count, blocking while it is zero. timeoutTicks > 0
// bounds the wait; on expiry the count is untouched and ErrTimeout is
// returned. timeoutTicks == 0 waits forever.
func (s *Semaphore) Wait(tc *sched.TaskContext, timeoutTicks uint64) error {
	c := tc.CPU()
	var deadline uint64
	if timeoutTicks > 0 {
		deadline = tc.Clock().Ticks() + timeoutTicks
	}

	for {
		s.lock.Lock(c)
		if s.destroyed {
			s.lock.Unlock(c)
			return api.ErrInvalidArgument
		}
		if s.value > 0 {
			s.value--
			s.lock.Unlock(c)
			return nil
		}
		if timeoutTicks > 0 && tc.Clock().Ticks() >= deadline {
			s.lock.Unlock(c)
			return api.ErrTimeout
		}

		if !s.enqueueLocked(tc.ID()) {
			s.lock.Unlock(c)
			return api.ErrResourceExhausted
		}
		var err error
		if timeoutTicks > 0 {
			err = tc.SetTimer(deadline)
		} else {
			err = tc.BlockCurrent()
		}
		if err != nil {
			s.removeLocked(tc.ID())
			s.lock.Unlock(c)
			return err
		}
		s.lock.Unlock(c)

		tc.Reschedule()

		// Woken by Post, by the timer, or spuriously: either way the
		// ring entry is stale now. Drop it and recheck the count.
		s.lock.Lock(c)
		s.removeLocked(tc.ID())
		s.lock.Unlock(c)
	}
}

// Post increments the count and wakes the longest-waiting blocked task,
// if any. Waiters that already timed out or exited are skipped.
func (s *Semaphore) Post(tc *sched.TaskContext) error {
	c := tc.CPU()
	s.lock.Lock(c)
	if s.destroyed {
		s.lock.Unlock(c)
		return api.ErrInvalidArgument
	}
	s.value++
	for {
		id := s.dequeueLocked()
		if id == api.NoTask {
			s.lock.Unlock(c)
			return nil
		}
		if tc.WakeupTask(id) == nil {
			s.lock.Unlock(c)
			return nil
		}
		// Not blocked anymore; try the next waiter.
	}
}

// Destroy marks the semaphore unusable and wakes every waiter; each sees
// the destroyed state and fails its Wait.
func (s *Semaphore) Destroy(tc *sched.TaskContext) {
	c := tc.CPU()
	s.lock.Lock(c)
	s.destroyed = true
	for {
		id := s.dequeueLocked()
		if id == api.NoTask {
			break
		}
		_ = tc.WakeupTask(id)
	}
	s.lock.Unlock(c)
}

// enqueueLocked appends id to the waiter ring, reclaiming leading
// tombstones when full. Reports false when truly full.
func (s *Semaphore) enqueueLocked(id api.TaskID) bool {
	for s.used == len(s.ring) && s.ring[s.head] == api.NoTask {
		s.head = (s.head + 1) % len(s.ring)
		s.used--
	}
	if s.used == len(s.ring) {
		return false
	}
	s.ring[s.tail] = id
	s.tail = (s.tail + 1) % len(s.ring)
	s.used++
	return true
}

// dequeueLocked pops the oldest live waiter, consuming tombstones.
func (s *Semaphore) dequeueLocked() api.TaskID {
	for s.used > 0 {
		id := s.ring[s.head]
		s.ring[s.head] = api.NoTask
		s.head = (s.head + 1) % len(s.ring)
		s.used--
		if id != api.NoTask {
			return id
		}
	}
	return api.NoTask
}

// removeLocked tombstones id's slot if it is still in the ring.
func (s *Semaphore) removeLocked(id api.TaskID) {
	for i, n := s.head, s.used; n > 0; n-- {
		if s.ring[i] == id {
			s.ring[i] = api.NoTask
			return
		}
		i = (i + 1) % len(s.ring)
	}
}
