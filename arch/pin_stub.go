//go:build !linux
// +build !linux

// File: arch/pin_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fallback for platforms without sched_setaffinity: lock the OS thread
// only, no CPU binding.

package arch

import "runtime"

// PinThread locks the calling goroutine to its OS thread.
func PinThread(cpuID int) {
	runtime.LockOSThread()
}
