package domain

import (
	"fmt"
	"sync"
	"time"
)

// ComponentType codes for the standard component kinds.
const (
	TypeStandard  = "standard"
	TypeProcessor = "processor"
	TypeObserver  = "observer"
	TypeValidator = "validator"
	TypeComposite = "composite"
	TypeConnector = "connector"
)

// Component is the unit of computation in the framework. It owns a unified
// lifecycle state, a lineage of creation reasons, an activity log and a bag
// of runtime properties. All mutating methods are safe for concurrent use.
type Component struct {
	mu sync.Mutex

	id            ComponentID
	componentType string
	state         State
	lineage       []string
	activityLog   []string
	createdAt     time.Time
	properties    map[string]any
	events        []Event
}

// NewComponent creates a component of the standard type and walks it through
// the embryonic lifecycle up to Ready.
func NewComponent(id ComponentID) (*Component, error) {
	return NewComponentOfType(id, TypeStandard)
}

// NewComponentOfType creates a component with an explicit type code.
func NewComponentOfType(id ComponentID, componentType string) (*Component, error) {
	c := newConceivedComponent(id, componentType)
	if err := c.initialize(); err != nil {
		return nil, err
	}
	return c, nil
}

// newConceivedComponent builds a component at Conception without advancing
// it; composites reuse this to control their own initialization.
func newConceivedComponent(id ComponentID, componentType string) *Component {
	c := &Component{
		id:            id,
		componentType: componentType,
		state:         StateConception,
		lineage:       []string{id.Reason()},
		createdAt:     time.Now().UTC(),
		properties:    make(map[string]any),
	}
	c.logActivity(fmt.Sprintf("component created, reason: %s, type: %s", id.Reason(), componentType))
	c.events = append(c.events, NewComponentCreatedEvent(id, componentType))
	return c
}

// initialize advances the component through the early lifecycle states.
func (c *Component) initialize() error {
	c.logActivity("beginning initialization")
	for _, s := range []State{
		StateInitializing,
		StateConfiguring,
		StateSpecializing,
		StateDevelopingFeatures,
		StateReady,
	} {
		if err := c.TransitionTo(s, "initialization"); err != nil {
			return err
		}
	}
	c.logActivity("initialization complete")
	return nil
}

// ID returns the component identity.
func (c *Component) ID() ComponentID { return c.id }

// Type returns the component type code.
func (c *Component) Type() string { return c.componentType }

// CreatedAt returns the creation time.
func (c *Component) CreatedAt() time.Time { return c.createdAt }

// State returns the current state.
func (c *Component) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TransitionTo moves the component to a new state, enforcing the lifecycle
// legality table. A successful transition raises a ComponentStateChangedEvent.
func (c *Component) TransitionTo(next State, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(next, reason)
}

func (c *Component) transitionLocked(next State, reason string) error {
	if !c.state.CanTransitionTo(next) {
		return &InvalidStateTransitionError{ID: c.id, From: c.state, To: next}
	}
	if c.state == next {
		return nil
	}
	previous := c.state
	c.state = next
	c.activityLog = append(c.activityLog, fmt.Sprintf("%s: state transition %s -> %s", time.Now().UTC().Format(time.RFC3339), previous, next))
	c.events = append(c.events, NewComponentStateChangedEvent(c.id, previous, next, reason))
	return nil
}

// Activate moves a Ready component to Active.
func (c *Component) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return &InvalidOperationError{ID: c.id, Operation: "activate", State: string(c.state)}
	}
	return c.transitionLocked(StateActive, "component activated")
}

// Deactivate returns an Active component to Ready.
func (c *Component) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return &InvalidOperationError{ID: c.id, Operation: "deactivate", State: string(c.state)}
	}
	return c.transitionLocked(StateReady, "component deactivated")
}

// Terminate shuts the component down. Knowledge is preserved and resources
// released between Terminating and Terminated. Terminating an already
// terminated component is a no-op.
func (c *Component) Terminate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateTerminated || c.state == StateArchived {
		return nil
	}
	if err := c.transitionLocked(StateTerminating, "termination requested"); err != nil {
		return err
	}
	c.logActivityLocked("preserving knowledge before termination")
	c.logActivityLocked("releasing allocated resources")
	return c.transitionLocked(StateTerminated, "termination complete")
}

// Archive preserves a terminated component's knowledge permanently.
func (c *Component) Archive() error {
	return c.TransitionTo(StateArchived, "component archived")
}

// AddToLineage appends an entry to the component's lineage. Empty entries
// are ignored.
func (c *Component) AddToLineage(entry string) {
	if entry == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lineage = append(c.lineage, entry)
	c.logActivityLocked("added to lineage: " + entry)
}

// Lineage returns a copy of the lineage entries.
func (c *Component) Lineage() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lineage...)
}

// ActivityLog returns a copy of the recorded activity entries.
func (c *Component) ActivityLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.activityLog...)
}

// SetProperty stores a runtime property on the component.
func (c *Component) SetProperty(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.properties[key] = value
}

// Property returns a runtime property and whether it was set.
func (c *Component) Property(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.properties[key]
	return v, ok
}

// Properties returns a copy of the property bag.
func (c *Component) Properties() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.properties))
	for k, v := range c.properties {
		out[k] = v
	}
	return out
}

// PublishData raises a ComponentDataEvent on the given channel. The event is
// delivered when the application layer drains pending events.
func (c *Component) PublishData(channel string, data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, NewComponentDataEvent(c.id, channel, data))
	c.logActivityLocked("published data on channel: " + channel)
}

// PendingEvents returns the events raised since the last drain.
func (c *Component) PendingEvents() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// ClearEvents drops all pending events, returning the drained slice.
func (c *Component) ClearEvents() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := c.events
	c.events = nil
	return drained
}

func (c *Component) logActivity(entry string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logActivityLocked(entry)
}

func (c *Component) logActivityLocked(entry string) {
	c.activityLog = append(c.activityLog, time.Now().UTC().Format(time.RFC3339)+": "+entry)
}

func (c *Component) String() string {
	return fmt.Sprintf("Component[%s, type=%s, state=%s]", c.id.ShortID(), c.componentType, c.State())
}
