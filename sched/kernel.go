// File: sched/kernel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Kernel construction, core bring-up, the idle loops and the per-core
// interrupt handler. Each core runs on its own host thread; the core's
// execution moves between task goroutines through continuation switches,
// and the idle loop owns the halt/wake protocol.

package sched

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-sched/api"
	"github.com/momentics/hioload-sched/arch"
	"github.com/momentics/hioload-sched/control"
	"github.com/momentics/hioload-sched/mm"
	"github.com/momentics/hioload-sched/spin"
)

// Verbose enables debug logging of task lifecycle events.
var Verbose bool

// Option customizes kernel construction.
type Option func(*Kernel)

// WithClock replaces the default host-backed clock.
func WithClock(c api.Clock) Option { return func(k *Kernel) { k.clock = c } }

// WithIntController replaces the default in-process interrupt controller.
func WithIntController(ic api.IntController) Option {
	return func(k *Kernel) { k.intc = ic }
}

// WithStackProvider replaces the default stack arena.
func WithStackProvider(sp api.StackProvider) Option {
	return func(k *Kernel) { k.stacks = sp }
}

// Kernel is one scheduler instance: task table, per-core ready queues and
// virtual cores.
type Kernel struct {
	cfg Config

	clock  api.Clock
	stacks api.StackProvider
	intc   api.IntController

	// ownIntc is set when the kernel built its own controller and is
	// responsible for starting and stopping it.
	ownIntc *arch.Controller

	cpus   []*arch.CPU
	queues []readyQueue
	tasks  []Task

	// tableLock guards slot allocation and deallocation only.
	tableLock spin.IrqLock

	nextCore  atomic.Int32
	liveTasks atomic.Int32
	shutdown  atomic.Bool
	lastExit  atomic.Int32
	started   atomic.Bool

	sliceCycles uint64

	metrics     *control.MetricsRegistry
	ctxSwitches *control.Counter
	preemptions *control.Counter
	fpuSwitches *control.Counter
	wakeups     *control.Counter
	timeouts    *control.Counter

	wg sync.WaitGroup
}

// New builds a kernel. Idle tasks occupy the first Cores slots of the
// task table; every core starts with its idle task as current.
func New(cfg Config, opts ...Option) *Kernel {
	cfg.normalize()

	k := &Kernel{cfg: cfg}
	for _, o := range opts {
		o(k)
	}
	if k.clock == nil {
		k.clock = arch.NewTickClock(cfg.TickFreq)
	}
	if k.stacks == nil {
		k.stacks = mm.NewArena(0)
	}
	k.sliceCycles = uint64(cfg.tickPeriod())

	k.cpus = make([]*arch.CPU, cfg.Cores)
	k.queues = make([]readyQueue, cfg.Cores)
	k.tasks = make([]Task, cfg.MaxTasks)

	for i := range k.tasks {
		t := &k.tasks[i]
		t.id = api.TaskID(i)
		t.setStatus(api.StatusInvalid)
		t.parent = api.NoTask
		t.next = api.NoTask
		t.prev = api.NoTask
	}

	for i := 0; i < cfg.Cores; i++ {
		core := api.CoreID(i)
		c := arch.NewCPU(core)
		c.SetIntHandler(k.handleInterrupt)
		k.cpus[i] = c

		idle := &k.tasks[i]
		idle.setStatus(api.StatusIdle)
		idle.prio = api.IdlePriority
		idle.coreID = core

		k.queues[i].init(idle.id)
		c.SetCurrentTask(idle.id)
	}

	if k.intc == nil {
		ctl := arch.NewController(k.cpus, cfg.tickPeriod(), cfg.DynamicTicks)
		k.intc = ctl
		k.ownIntc = ctl
	}

	k.metrics = control.NewMetricsRegistry()
	k.ctxSwitches = k.metrics.Counter("ctx_switches")
	k.preemptions = k.metrics.Counter("preemptions")
	k.fpuSwitches = k.metrics.Counter("fpu_switches")
	k.wakeups = k.metrics.Counter("wakeups")
	k.timeouts = k.metrics.Counter("timeouts")

	return k
}

// Start brings every core online. Boot-time tasks created before Start
// are picked up by the initial scheduling pass of their core.
func (k *Kernel) Start() {
	if !k.started.CompareAndSwap(false, true) {
		return
	}
	for i := range k.cpus {
		k.wg.Add(1)
		go k.coreLoop(k.cpus[i])
	}
	if k.ownIntc != nil {
		k.ownIntc.Start()
	}
}

// Wait blocks until every core has shut down.
func (k *Kernel) Wait() {
	k.wg.Wait()
	if k.ownIntc != nil {
		k.ownIntc.Stop()
	}
}

// Run is the convenience boot path: create the first task on core 0,
// start all cores and wait for shutdown.
func (k *Kernel) Run(ep EntryFunc, arg any, prio api.Priority) error {
	if _, err := k.Boot(ep, arg, prio); err != nil {
		return err
	}
	k.Start()
	k.Wait()
	return nil
}

// Shutdown requests shutdown: every core forces its idle task as soon as
// its running task yields, and task creation is refused from now on.
func (k *Kernel) Shutdown() {
	if !k.shutdown.CompareAndSwap(false, true) {
		return
	}
	for _, c := range k.cpus {
		k.intc.SendWakeupSignal(c.ID())
	}
}

// ShuttingDown reports whether shutdown has been requested.
func (k *Kernel) ShuttingDown() bool { return k.shutdown.Load() }

// LastExitCode returns the exit code of the task that exited last.
func (k *Kernel) LastExitCode() int { return int(k.lastExit.Load()) }

// TaskCount returns the number of live (not yet finished) tasks.
func (k *Kernel) TaskCount() int { return int(k.liveTasks.Load()) }

// Cores returns the number of virtual cores.
func (k *Kernel) Cores() int { return len(k.cpus) }

// CPU exposes a virtual core, mainly so tests and embedders can inject
// signals through the arch layer.
func (k *Kernel) CPU(core api.CoreID) *arch.CPU { return k.cpus[core] }

// Clock returns the kernel's time source.
func (k *Kernel) Clock() api.Clock { return k.clock }

// Metrics returns the kernel's metrics registry.
func (k *Kernel) Metrics() *control.MetricsRegistry { return k.metrics }

// RegisterProbes wires per-core debug probes into dp. Probes read only
// atomically published state and may be dumped from any goroutine.
func (k *Kernel) RegisterProbes(dp *control.DebugProbes) {
	for i := range k.cpus {
		c := k.cpus[i]
		q := &k.queues[i]
		dp.RegisterProbe(fmt.Sprintf("core%d", i), func() any {
			return CoreSnapshot{
				Core:    c.ID(),
				Current: c.CurrentTask(),
				Ready:   q.nrReady.Load(),
				Halted:  c.Halted(),
			}
		})
	}
	dp.RegisterProbe("tasks_live", func() any { return k.TaskCount() })
	dp.RegisterProbe("shutting_down", func() any { return k.ShuttingDown() })
}

// CoreSnapshot is the probe view of one core.
type CoreSnapshot struct {
	Core    api.CoreID
	Current api.TaskID
	Ready   uint32
	Halted  bool
}

// coreLoop is the idle task of one core. Its goroutine doubles as the
// core's bootstrap thread.
func (k *Kernel) coreLoop(c *arch.CPU) {
	defer k.wg.Done()

	if k.cfg.PinCores {
		arch.PinThread(int(c.ID()))
	} else {
		runtime.LockOSThread()
	}

	q := k.queue(c)
	k.task(q.idle).cont = arch.AdoptCurrent()

	// Initial pass picks up tasks created before Start.
	k.rescheduleOn(c, false)

	for !k.shutdown.Load() {
		c.WaitForInterrupt()
	}
}

// handleInterrupt runs on the receiving core with interrupts masked.
func (k *Kernel) handleInterrupt(c *arch.CPU, sig arch.Signal) {
	switch sig {
	case arch.SignalTick:
		k.onTick(c)
	case arch.SignalWakeup:
		// One scheduler pass per signal; signals are never coalesced.
		k.rescheduleOn(c, false)
	}
}

// onTick services expired timers, then checks whether the current task
// should be preempted: always for a higher-priority ready task, and for
// an equal-priority one only once the current task has consumed a slice.
func (k *Kernel) onTick(c *arch.CPU) {
	k.checkTimers(c)

	q := k.queue(c)
	q.lock.Lock(c)
	prio := q.highestPrio()
	curr := k.task(q.current)
	currPrio := curr.prio
	currStatus := curr.Status()
	last := curr.lastCycles
	q.lock.Unlock(c)

	if prio == api.IdlePriority {
		return
	}
	switch {
	case currStatus == api.StatusIdle || prio > currPrio:
		k.preemptions.Inc()
		k.rescheduleOn(c, false)
	case prio == currPrio && k.clock.Cycles()-last >= k.sliceCycles:
		k.preemptions.Inc()
		k.rescheduleOn(c, true)
	}
}

func (k *Kernel) task(id api.TaskID) *Task { return &k.tasks[id] }

func (k *Kernel) queue(c *arch.CPU) *readyQueue { return &k.queues[c.ID()] }

func (k *Kernel) validID(id api.TaskID) bool {
	return id >= 0 && int(id) < len(k.tasks)
}

// fatal halts the core: continuing on undefined scheduler state is worse
// than stopping.
func (k *Kernel) fatal(format string, args ...any) {
	log.Panicf("sched: "+format, args...)
}

func (k *Kernel) logf(format string, args ...any) {
	if Verbose {
		log.Printf("sched: "+format, args...)
	}
}
