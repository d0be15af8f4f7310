// Package job defines the record type tracked by the scheduler's registry.
package job

import "time"

// State is the lifecycle stage of a Job.
type State int

const (
	// StateWaiting is the state of a job that has been submitted but not yet
	// claimed by a worker.
	StateWaiting State = iota
	// StateRunning is the state of a job claimed by exactly one worker.
	StateRunning
	// StateDone is the state of a job whose runner has returned, successfully
	// or not.
	StateDone
)

// String renders the state the way it is shown in `list` output.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "Waiting"
	case StateRunning:
		return "Running"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Job is one row of scheduler state. All fields are set by whoever holds the
// registry lock, except OutputSize and FinishedAt, which the runner observes
// and the worker pool commits under the lock on its behalf. Callers outside
// the registry and pool should treat a Job as read-only.
type Job struct {
	ID          int
	InputPath   string
	InputSize   int64
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	OutputPath  string
	OutputSize  int64
	State       State

	// PassedOver is used only by the Balanced policy: it counts how many
	// times this job was the current best-shortest candidate but was
	// displaced by another candidate during a single selection pass.
	PassedOver int
}

// Failed reports whether a Done job's synthesizer run produced no output,
// which is the surface-level signal of subprocess failure.
func (j *Job) Failed() bool {
	return j.State == StateDone && j.OutputSize == 0
}
