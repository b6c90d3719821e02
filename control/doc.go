// Package control
// Author: momentics <momentics@gmail.com>
//
// Observability surface for the scheduler core: a counter/metrics
// registry updated from hot paths, and named debug probes that snapshot
// internal state on demand.
package control
