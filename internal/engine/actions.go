package engine

import "fmt"

// Action is the closed set of operations the engine accepts against a
// process step. The set is sealed so dispatch is exhaustive; only the
// boundary parser can produce an unknown-action failure.
type Action interface {
	actionName() string
}

// ReceiveAction moves a pending step off the waiting list into execution and
// marks the matching inbound transfer received.
type ReceiveAction struct{}

// StartAction is the legacy synonym kept for backward compatibility: it
// forces a non-completed step into execution without touching transfers.
type StartAction struct{}

// CompleteAction finishes an in-progress step. Quantity zero means the full
// received quantity was completed.
type CompleteAction struct {
	Quantity int
}

func (ReceiveAction) actionName() string  { return "receive" }
func (StartAction) actionName() string    { return "start" }
func (CompleteAction) actionName() string { return "complete" }

// ParseAction translates an external action string into a typed action.
// Unrecognized names fail with ErrUnknownAction.
func ParseAction(name string, quantity int) (Action, error) {
	switch name {
	case "receive":
		return ReceiveAction{}, nil
	case "start":
		return StartAction{}, nil
	case "complete":
		return CompleteAction{Quantity: quantity}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}
