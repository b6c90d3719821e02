// control/probes.go
// Author: momentics <momentics@gmail.com>
//
// Named debug probes over live scheduler state. A probe is a closure
// that snapshots one piece of internal state on demand; registration is
// rare, reads may come from any goroutine.

package control

import "sync"

// Probe snapshots one piece of internal state. It must not block and
// must not take scheduler locks the caller could already hold.
type Probe func() any

// DebugProbes is a registry of named probes. Registering under an
// existing name replaces the old probe.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

// NewDebugProbes creates an empty probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]Probe),
	}
}

// RegisterProbe installs a named probe.
func (dp *DebugProbes) RegisterProbe(name string, p Probe) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = p
}

// Read invokes a single probe by name.
func (dp *DebugProbes) Read(name string) (any, bool) {
	dp.mu.RLock()
	p, ok := dp.probes[name]
	dp.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return p(), true
}

// DumpState invokes every registered probe and collects the results.
// Probes run outside the registry lock so a probe may register others.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	snap := make(map[string]Probe, len(dp.probes))
	for name, p := range dp.probes {
		snap[name] = p
	}
	dp.mu.RUnlock()

	out := make(map[string]any, len(snap))
	for name, p := range snap {
		out[name] = p()
	}
	return out
}
