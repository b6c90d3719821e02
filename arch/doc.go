// Package arch
// Author: momentics <momentics@gmail.com>
//
// Virtual hardware layer of hioload-sched. A core is a host goroutine
// locked to an OS thread; its interrupt-enable flag gates a per-core
// signal mailbox that stands in for the local APIC. Continuations are
// goroutines parked on a one-slot channel; the FPU is a simulated
// register file saved and restored by the lazy-switch protocol in sched.
//
// Interrupts are delivered at well-defined points: when the interrupt
// flag transitions to enabled, when a halted core receives a signal, and
// at explicit Poll calls. A handler always runs with interrupts masked
// and may context-switch away; the suspended handler finishes its
// delivery loop when the task is resumed.
package arch
