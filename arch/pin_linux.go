//go:build linux
// +build linux

// File: arch/pin_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pins a virtual core's host thread to a physical CPU via sched_setaffinity.

package arch

import (
	"log"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinThread locks the calling goroutine to its OS thread and binds that
// thread to physical CPU cpuID (modulo the host CPU count). Best effort:
// failures are logged, not fatal.
func PinThread(cpuID int) {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID % runtime.NumCPU())
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		log.Printf("arch: pin to cpu %d failed: %v", cpuID, err)
	}
}
