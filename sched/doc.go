// Package sched
// Author: momentics <momentics@gmail.com>
//
// The multicore priority scheduler: a fixed task table (slot index =
// identity), one ready queue per core with a priority bitmap, timer list,
// idle task and lazy FPU owner, and the continuation-switch protocol that
// binds them. Tasks are bound to one core at creation and never migrate;
// selection is strict highest-ready-priority-first with FIFO order inside
// a level and no aging, so a busy high-priority task can starve lower
// ones indefinitely.
//
// Each core's queue state is guarded by its own IRQ-safe ticket lock; the
// table lock covers slot allocation and nothing else. Waking a task on
// another core takes the target core's lock and sends it a wakeup signal.
package sched
