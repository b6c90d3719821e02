// File: arch/intctrl.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Default in-process interrupt controller. In dynamic-tick mode each core
// gets a one-shot deadline timer re-armed on demand; otherwise a periodic
// ticker per core polls at the clock frequency. Wakeup signals go straight
// to the target core's mailbox.

package arch

import (
	"sync"
	"time"

	"github.com/momentics/hioload-sched/api"
)

// Controller implements api.IntController for a set of virtual cores.
type Controller struct {
	cpus    []*CPU
	period  time.Duration
	dynamic bool

	mu       sync.Mutex
	oneshots map[api.CoreID]*time.Timer
	stop     chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewController creates a controller for cpus. period is the duration of
// one clock tick; dynamic selects one-shot deadline programming over
// periodic polling.
func NewController(cpus []*CPU, period time.Duration, dynamic bool) *Controller {
	return &Controller{
		cpus:     cpus,
		period:   period,
		dynamic:  dynamic,
		oneshots: make(map[api.CoreID]*time.Timer),
		stop:     make(chan struct{}),
	}
}

// Start launches the periodic tickers unless dynamic ticks are active.
func (ic *Controller) Start() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.running {
		return
	}
	ic.running = true
	if ic.dynamic {
		return
	}
	for _, c := range ic.cpus {
		ic.wg.Add(1)
		go ic.tickLoop(c)
	}
}

func (ic *Controller) tickLoop(c *CPU) {
	defer ic.wg.Done()
	tk := time.NewTicker(ic.period)
	defer tk.Stop()
	for {
		select {
		case <-tk.C:
			c.Signal(SignalTick)
		case <-ic.stop:
			return
		}
	}
}

// RequestInterruptIn arms the one-shot timer of core to fire in ticks
// clock ticks, replacing any earlier deadline.
func (ic *Controller) RequestInterruptIn(core api.CoreID, ticks uint64) {
	if ticks == 0 {
		ticks = 1
	}
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if t, ok := ic.oneshots[core]; ok {
		t.Stop()
	}
	c := ic.cpus[core]
	ic.oneshots[core] = time.AfterFunc(time.Duration(ticks)*ic.period, func() {
		c.Signal(SignalTick)
	})
}

// CancelPeriodicFallback stops a pending one-shot of the core, preventing
// spurious interrupts once its timer queue is empty.
func (ic *Controller) CancelPeriodicFallback(core api.CoreID) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if t, ok := ic.oneshots[core]; ok {
		t.Stop()
		delete(ic.oneshots, core)
	}
}

// SendWakeupSignal posts an inter-processor wakeup to the target core.
func (ic *Controller) SendWakeupSignal(core api.CoreID) {
	ic.cpus[core].Signal(SignalWakeup)
}

// Stop shuts the controller down and waits for its tick loops.
func (ic *Controller) Stop() {
	ic.mu.Lock()
	if !ic.running {
		ic.mu.Unlock()
		return
	}
	ic.running = false
	close(ic.stop)
	for id, t := range ic.oneshots {
		t.Stop()
		delete(ic.oneshots, id)
	}
	ic.mu.Unlock()
	ic.wg.Wait()
}

var _ api.IntController = (*Controller)(nil)
