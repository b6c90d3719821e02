// File: arch/fpu.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Simulated floating-point register file. Tasks reach it only through the
// lazy-switch handler in sched, which saves the previous owner's state
// into its control block before restoring the new owner's.

package arch

// FPURegs is the number of simulated FPU data registers.
const FPURegs = 8

// mxcsrDefault is the reset value of the simulated control/status register.
const mxcsrDefault = 0x1f80

// FPUState is the saved register file kept in a task control block.
type FPUState struct {
	regs [FPURegs]float64
	csr  uint32
}

// Init resets the state to power-on defaults. Called on a task's very
// first FPU use.
func (s *FPUState) Init() {
	*s = FPUState{csr: mxcsrDefault}
}

// FPU is the per-core register file.
type FPU struct {
	st FPUState
}

// Save copies the live register file into a task's saved state.
func (f *FPU) Save(into *FPUState) { *into = f.st }

// Restore loads a task's saved state into the live register file.
func (f *FPU) Restore(from *FPUState) { f.st = *from }

// Write stores v into data register i.
func (f *FPU) Write(i int, v float64) { f.st.regs[i] = v }

// Read returns the value of data register i.
func (f *FPU) Read(i int) float64 { return f.st.regs[i] }

// CSR returns the control/status register.
func (f *FPU) CSR() uint32 { return f.st.csr }

// SetCSR sets the control/status register.
func (f *FPU) SetCSR(v uint32) { f.st.csr = v }
