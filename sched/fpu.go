// File: sched/fpu.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sched

import (
	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/arch"
)

// fpuHandler performs the lazy FPU ownership switch for task id on core
// c. The previous owner's live register state is saved into its TCB, the
// claimant's state is restored (or initialized on first use). Caller has
// interrupts disabled.
func (k *Kernel) fpuHandler(c *arch.CPU, id api.TaskID) {
	t := k.task(id)
	if t.flags&flagFPUInit == 0 {
		t.fpu.Init()
		t.flags |= flagFPUInit
	}
	t.flags |= flagFPUUsed

	q := k.queue(c)
	q.lock.Lock(c)
	owner := q.fpuOwner
	if owner == id {
		q.lock.Unlock(c)
		return
	}
	if owner != api.NoTask {
		prev := k.task(owner)
		c.FPU().Save(&prev.fpu)
		prev.flags &^= flagFPUUsed
	}
	q.fpuOwner = id
	q.lock.Unlock(c)

	c.FPU().Restore(&t.fpu)
	k.fpuSwitches.Inc()
}
