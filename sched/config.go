// File: sched/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sched

import (
	"time"

	"github.com/momentics/hioload-sched/api"
)

// Config sizes the kernel at construction time.
type Config struct {
	// Cores is the number of virtual cores.
	Cores int

	// MaxTasks is the task table capacity, idle tasks included.
	MaxTasks int

	// StackSize and IStackSize are the sizes of the per-task stack and
	// interrupt stack requested from the memory manager.
	StackSize  int
	IStackSize int

	// TickFreq is the timer tick frequency in Hz.
	TickFreq uint64

	// DynamicTicks reprograms a one-shot deadline timer instead of
	// relying on periodic polling ticks.
	DynamicTicks bool

	// AutoShutdown requests shutdown once the last task exits.
	AutoShutdown bool

	// PinCores binds each core's host thread to a physical CPU.
	PinCores bool
}

// DefaultConfig returns the configuration used by the examples.
func DefaultConfig() Config {
	return Config{
		Cores:        2,
		MaxTasks:     64,
		StackSize:    64 << 10,
		IStackSize:   16 << 10,
		TickFreq:     100,
		DynamicTicks: true,
		AutoShutdown: true,
	}
}

func (c *Config) normalize() {
	if c.Cores < 1 {
		c.Cores = 1
	}
	if c.MaxTasks < c.Cores+1 {
		c.MaxTasks = c.Cores + 1
	}
	if c.StackSize <= 0 {
		c.StackSize = 64 << 10
	}
	if c.IStackSize <= 0 {
		c.IStackSize = 16 << 10
	}
	if c.TickFreq == 0 {
		c.TickFreq = 100
	}
}

// tickPeriod returns the wall-clock duration of one tick.
func (c *Config) tickPeriod() time.Duration {
	return time.Second / time.Duration(c.TickFreq)
}

// clampKernelPriority mirrors the kernel-task convenience rule: an
// out-of-range priority falls back to normal.
func clampKernelPriority(p api.Priority) api.Priority {
	if p > api.MaxPriority {
		return api.NormalPriority
	}
	return p
}
