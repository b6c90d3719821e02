// File: mm/stacks.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Guarded stack arena implementing api.StackProvider.

package mm

import (
	"log"

	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/spin"
)

const (
	// guardSize is the width of the guard band at each end of a stack.
	guardSize = 16
	// guardByte is the pattern painted into the guard bands.
	guardByte = 0xAA
)

// Stack is one guarded stack region.
type Stack struct {
	mem []byte
}

// Size returns the usable size in bytes, excluding the guard bands.
func (s *Stack) Size() int { return len(s.mem) - 2*guardSize }

// Arena hands out guarded stacks up to a total budget. It recycles freed
// stacks per size class. Safe in task and interrupt context: the embedded
// ticket lock only spins.
type Arena struct {
	lock  spin.Lock
	limit int
	used  int
	free  map[int][]*Stack
}

// NewArena creates an arena with a total budget of limit bytes.
// A limit of zero means unbounded.
func NewArena(limit int) *Arena {
	return &Arena{
		limit: limit,
		free:  make(map[int][]*Stack),
	}
}

// AllocStack returns a guarded stack of at least size usable bytes.
func (a *Arena) AllocStack(size int) (api.Stack, error) {
	if size <= 0 {
		return nil, api.ErrInvalidArgument
	}

	a.lock.Lock(api.NoTask)
	defer a.lock.Unlock()

	if a.limit > 0 && a.used+size > a.limit {
		return nil, api.ErrResourceExhausted
	}

	var s *Stack
	if fl := a.free[size]; len(fl) > 0 {
		s = fl[len(fl)-1]
		a.free[size] = fl[:len(fl)-1]
	} else {
		s = &Stack{mem: make([]byte, size+2*guardSize)}
	}
	paintGuards(s.mem)
	a.used += size

	return s, nil
}

// ReleaseStack returns a stack to the arena. Overwritten guard bands are
// logged and the region is dropped instead of recycled.
func (a *Arena) ReleaseStack(h api.Stack, size int) {
	s, ok := h.(*Stack)
	if !ok || s == nil {
		return
	}

	a.lock.Lock(api.NoTask)
	defer a.lock.Unlock()

	a.used -= size
	if !checkGuards(s.mem) {
		log.Printf("mm: stack guard overwritten, dropping region (size %d)", size)
		return
	}
	a.free[size] = append(a.free[size], s)
}

// Used returns the bytes currently handed out.
func (a *Arena) Used() int {
	a.lock.Lock(api.NoTask)
	defer a.lock.Unlock()
	return a.used
}

func paintGuards(mem []byte) {
	for i := 0; i < guardSize; i++ {
		mem[i] = guardByte
		mem[len(mem)-1-i] = guardByte
	}
}

func checkGuards(mem []byte) bool {
	for i := 0; i < guardSize; i++ {
		if mem[i] != guardByte || mem[len(mem)-1-i] != guardByte {
			return false
		}
	}
	return true
}

var _ api.StackProvider = (*Arena)(nil)
