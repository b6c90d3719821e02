// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error values for the scheduler core. Every fallible operation
// returns one of these; locking primitives never fail.

package api

import "fmt"

var (
	// ErrInvalidArgument covers nil entry points, out-of-range priorities
	// and core ids, and operations on invalid or finished task slots.
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// ErrResourceExhausted is returned when no free task slot or no stack
	// memory is available. Partial allocations are unwound by the caller.
	ErrResourceExhausted = fmt.Errorf("resource exhausted")

	// ErrTimeout is the distinct non-error outcome of a timed wait that
	// was not satisfied before its deadline.
	ErrTimeout = fmt.Errorf("operation timed out")

	// ErrWouldBlock is returned by non-blocking acquisition attempts.
	ErrWouldBlock = fmt.Errorf("operation would block")

	// ErrNotFound is returned when a task id does not name a live task.
	ErrNotFound = fmt.Errorf("task not found")

	// ErrShuttingDown is returned when task creation is refused because
	// a shutdown has been requested.
	ErrShuttingDown = fmt.Errorf("kernel is shutting down")
)
