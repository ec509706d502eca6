package lifecycle

import "time"

// State represents the lifecycle state of an embedded emulator frame.
type State int

const (
	StateLoading State = iota
	StateReady
	StatePlaying
	StateExited
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	case StateExited:
		return "Exited"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// EventEmitterFunc adapts a function to EventEmitter.
type EventEmitterFunc func(previous, current State, reason string)

// OnStateChange calls f.
func (f EventEmitterFunc) OnStateChange(previous, current State, reason string) {
	f(previous, current, reason)
}

// Manager manages the lifecycle state machine for a frame.
type Manager interface {
	// State returns the current lifecycle state.
	State() State

	// CanPlay returns true if a cartridge can be started.
	CanPlay() bool

	// IsLoaded returns true once a module instance exists.
	IsLoaded() bool

	// TransitionTo attempts to transition to a new state.
	// Returns an error if the transition is not valid.
	TransitionTo(newState State, reason string) error

	// WaitWithTimeout waits for all workers to finish with a timeout.
	// Returns ErrShutdownTimeout if the timeout expires.
	WaitWithTimeout(timeout time.Duration) error

	// AddWorker increments the worker count.
	AddWorker()

	// WorkerDone decrements the worker count.
	WorkerDone()
}
