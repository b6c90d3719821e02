// File: synch/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package synch provides blocking synchronization primitives built on the
// scheduler's block/wakeup protocol. Unlike the spin locks in package
// spin, these put waiters to sleep and are therefore safe for long waits
// and interrupt-driven handoff between tasks on different cores.
package synch
