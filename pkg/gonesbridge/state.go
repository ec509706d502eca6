package gonesbridge

import "github.com/bft-labs/gonesbridge/pkg/lifecycle"

// State is the lifecycle state of the bridge's frame.
type State = lifecycle.State

// Frame states.
const (
	StateLoading = lifecycle.StateLoading
	StateReady   = lifecycle.StateReady
	StatePlaying = lifecycle.StatePlaying
	StateExited  = lifecycle.StateExited
	StateFailed  = lifecycle.StateFailed
)

// StateChangeEvent describes a frame state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives bridge notifications. Calls are synchronous;
// implementations should return quickly and must not call Stop.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(StateChangeEvent)

// OnStateChange calls f.
func (f EventHandlerFunc) OnStateChange(event StateChangeEvent) { f(event) }

// eventEmitterWrapper adapts EventHandler to the lifecycle emitter.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current lifecycle.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}
