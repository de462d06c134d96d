package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is a fact raised by a domain entity. Events are immutable once
// constructed.
type Event interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
	SourceID() ComponentID
}

// BaseEvent carries the fields shared by all domain events.
type BaseEvent struct {
	id         string
	eventType  string
	occurredAt time.Time
	sourceID   ComponentID
}

func newBaseEvent(eventType string, sourceID ComponentID) BaseEvent {
	return BaseEvent{
		id:         uuid.NewString(),
		eventType:  eventType,
		occurredAt: time.Now().UTC(),
		sourceID:   sourceID,
	}
}

func (e BaseEvent) EventID() string       { return e.id }
func (e BaseEvent) EventType() string     { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e BaseEvent) SourceID() ComponentID { return e.sourceID }

// Event type names, used for dispatcher subscriptions.
const (
	EventTypeComponentCreated      = "component.created"
	EventTypeComponentStateChanged = "component.state_changed"
	EventTypeComponentConnection   = "component.connection"
	EventTypeComponentData         = "component.data"
	EventTypeMachineStateChanged   = "machine.state_changed"
)

// ComponentCreatedEvent is raised once when a component comes into existence.
type ComponentCreatedEvent struct {
	BaseEvent
	componentType string
}

// NewComponentCreatedEvent creates the creation event for a component.
func NewComponentCreatedEvent(id ComponentID, componentType string) ComponentCreatedEvent {
	return ComponentCreatedEvent{
		BaseEvent:     newBaseEvent(EventTypeComponentCreated, id),
		componentType: componentType,
	}
}

// ComponentType returns the type code of the created component.
func (e ComponentCreatedEvent) ComponentType() string { return e.componentType }

// ComponentStateChangedEvent is raised on every component state transition.
type ComponentStateChangedEvent struct {
	BaseEvent
	previousState State
	newState      State
	reason        string
}

// NewComponentStateChangedEvent creates a state change event.
func NewComponentStateChangedEvent(id ComponentID, previous, next State, reason string) ComponentStateChangedEvent {
	return ComponentStateChangedEvent{
		BaseEvent:     newBaseEvent(EventTypeComponentStateChanged, id),
		previousState: previous,
		newState:      next,
		reason:        reason,
	}
}

func (e ComponentStateChangedEvent) PreviousState() State { return e.previousState }
func (e ComponentStateChangedEvent) NewState() State      { return e.newState }
func (e ComponentStateChangedEvent) Reason() string       { return e.reason }

// ComponentConnectionEvent is raised when two components are connected inside
// a composite.
type ComponentConnectionEvent struct {
	BaseEvent
	targetID       ComponentID
	connectionType ConnectionType
	description    string
}

// NewComponentConnectionEvent creates a connection event; the source of the
// event is the source end of the connection.
func NewComponentConnectionEvent(source, target ComponentID, ct ConnectionType, description string) ComponentConnectionEvent {
	return ComponentConnectionEvent{
		BaseEvent:      newBaseEvent(EventTypeComponentConnection, source),
		targetID:       target,
		connectionType: ct,
		description:    description,
	}
}

func (e ComponentConnectionEvent) TargetID() ComponentID          { return e.targetID }
func (e ComponentConnectionEvent) ConnectionType() ConnectionType { return e.connectionType }
func (e ComponentConnectionEvent) Description() string            { return e.description }

// ComponentDataEvent carries data published by a component on a channel.
type ComponentDataEvent struct {
	BaseEvent
	channel string
	data    map[string]any
}

// NewComponentDataEvent creates a data event. The data map is copied.
func NewComponentDataEvent(id ComponentID, channel string, data map[string]any) ComponentDataEvent {
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return ComponentDataEvent{
		BaseEvent: newBaseEvent(EventTypeComponentData, id),
		channel:   channel,
		data:      copied,
	}
}

// Channel returns the channel the data was published on.
func (e ComponentDataEvent) Channel() string { return e.channel }

// Data returns a copy of the published payload.
func (e ComponentDataEvent) Data() map[string]any {
	copied := make(map[string]any, len(e.data))
	for k, v := range e.data {
		copied[k] = v
	}
	return copied
}

// MachineStateChangedEvent is raised on every machine state transition. The
// event is constructed once and never mutated.
type MachineStateChangedEvent struct {
	BaseEvent
	previousState    MachineState
	newState         MachineState
	transitionReason string
}

// NewMachineStateChangedEvent creates a machine state change event.
func NewMachineStateChangedEvent(machineID ComponentID, previous, next MachineState, reason string) MachineStateChangedEvent {
	return MachineStateChangedEvent{
		BaseEvent:        newBaseEvent(EventTypeMachineStateChanged, machineID),
		previousState:    previous,
		newState:         next,
		transitionReason: reason,
	}
}

// MachineID returns the identity of the machine that changed state.
func (e MachineStateChangedEvent) MachineID() ComponentID { return e.SourceID() }

// PreviousState returns the state before the transition.
func (e MachineStateChangedEvent) PreviousState() MachineState { return e.previousState }

// NewState returns the state after the transition.
func (e MachineStateChangedEvent) NewState() MachineState { return e.newState }

// TransitionReason returns the reason recorded for the transition.
func (e MachineStateChangedEvent) TransitionReason() string { return e.transitionReason }
