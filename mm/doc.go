// Package mm
// Author: momentics <momentics@gmail.com>
//
// Minimal in-process stand-in for the memory manager: an arena handing
// out guarded task stacks through the api.StackProvider contract. Freed
// stacks are recycled per size class; guard patterns at both ends catch
// overflows at release time.
package mm
