// Package api
// Author: momentics <momentics@gmail.com>
//
// Public contracts of the hioload-sched concurrency core: task and core
// identifiers, task states, and the boundary interfaces toward the memory
// manager, the interrupt controller, and the time source.
// The scheduler itself lives in package sched; the virtual CPU layer in
// package arch; locking primitives in package spin; semaphores in synch.
package api
