// File: api/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Identifier and state types shared by all scheduler packages.

package api

// TaskID is a task's slot index in the global task table.
// NoTask marks an empty reference.
type TaskID int32

// NoTask is the nil task reference.
const NoTask TaskID = -1

// CoreID identifies one virtual core.
type CoreID int32

// Priority of a task. Zero is reserved for the per-core idle tasks;
// regular tasks use 1..MaxPriority.
type Priority uint8

const (
	IdlePriority     Priority = 0
	LowPriority      Priority = 1
	NormalPriority   Priority = 8
	HighPriority     Priority = 16
	RealtimePriority Priority = 31

	// MaxPriority is the highest priority a regular task may have.
	MaxPriority Priority = 31
)

// Status is the lifecycle state of a task table slot.
type Status uint8

const (
	StatusInvalid Status = iota
	StatusReady
	StatusRunning
	StatusBlocked
	StatusFinished
	StatusIdle
)

// String returns the state name, for logs and probes.
func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusBlocked:
		return "blocked"
	case StatusFinished:
		return "finished"
	case StatusIdle:
		return "idle"
	}
	return "unknown"
}
