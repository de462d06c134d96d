package domain

import (
	"errors"
	"fmt"
)

// ErrComponentNotFound is returned when a component ID cannot be resolved.
var ErrComponentNotFound = errors.New("component not found")

// ErrMachineNotFound is returned when a machine ID cannot be resolved.
var ErrMachineNotFound = errors.New("machine not found")

// ErrConnectionNotFound is returned when a connection ID does not exist in a
// composite.
var ErrConnectionNotFound = errors.New("connection not found")

// ErrDuplicateComponent is returned when adding a component that is already
// present in a composite or machine.
var ErrDuplicateComponent = errors.New("component already present")

// InvalidStateTransitionError reports an illegal component state change.
type InvalidStateTransitionError struct {
	ID   ComponentID
	From State
	To   State
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("component %s: invalid state transition %s -> %s", e.ID.ShortID(), e.From, e.To)
}

// InvalidMachineTransitionError reports an illegal machine state change.
type InvalidMachineTransitionError struct {
	ID   ComponentID
	From MachineState
	To   MachineState
}

func (e *InvalidMachineTransitionError) Error() string {
	return fmt.Sprintf("machine %s: invalid state transition %s -> %s", e.ID.ShortID(), e.From, e.To)
}

// InvalidOperationError reports an operation attempted in a state that does
// not permit it.
type InvalidOperationError struct {
	ID        ComponentID
	Operation string
	State     string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("operation %q not allowed for %s in state %s", e.Operation, e.ID.ShortID(), e.State)
}
