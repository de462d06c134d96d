package domain

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CompositeType identifies the wiring pattern a composite implements.
type CompositeType string

const (
	CompositeStandard       CompositeType = "standard"
	CompositePipeline       CompositeType = "pipeline"
	CompositeObserver       CompositeType = "observer"
	CompositeTransformer    CompositeType = "transformer"
	CompositeValidator      CompositeType = "validator"
	CompositeCircuitBreaker CompositeType = "circuit_breaker"
	CompositeMediator       CompositeType = "mediator"
	CompositeAdapter        CompositeType = "adapter"
)

// Valid reports whether t is a known composite type.
func (t CompositeType) Valid() bool {
	switch t {
	case CompositeStandard, CompositePipeline, CompositeObserver, CompositeTransformer,
		CompositeValidator, CompositeCircuitBreaker, CompositeMediator, CompositeAdapter:
		return true
	}
	return false
}

// ConnectionType classifies the relationship between two connected
// components.
type ConnectionType string

const (
	ConnectionDataFlow       ConnectionType = "data_flow"
	ConnectionControl        ConnectionType = "control"
	ConnectionEvent          ConnectionType = "event"
	ConnectionMonitoring     ConnectionType = "monitoring"
	ConnectionValidation     ConnectionType = "validation"
	ConnectionTransformation ConnectionType = "transformation"
	ConnectionComposition    ConnectionType = "composition"
	ConnectionPeer           ConnectionType = "peer"
)

// Connection links two components inside a composite.
type Connection struct {
	id          string
	sourceID    ComponentID
	targetID    ComponentID
	connType    ConnectionType
	description string
	active      bool
}

// NewConnection creates an active connection with a generated ID.
func NewConnection(source, target ComponentID, ct ConnectionType, description string) *Connection {
	return &Connection{
		id:          uuid.NewString(),
		sourceID:    source,
		targetID:    target,
		connType:    ct,
		description: description,
		active:      true,
	}
}

func (c *Connection) ID() string            { return c.id }
func (c *Connection) SourceID() ComponentID { return c.sourceID }
func (c *Connection) TargetID() ComponentID { return c.targetID }
func (c *Connection) Type() ConnectionType  { return c.connType }
func (c *Connection) Description() string   { return c.description }
func (c *Connection) Active() bool          { return c.active }
func (c *Connection) Activate() { c.active = true }
func (c *Connection) Deactivate() { c.active = false }

// Composite is a component grouping child components with typed connections
// between them. Lifecycle operations cascade to the children.
type Composite struct {
	*Component

	cmu           sync.Mutex
	compositeType CompositeType
	children      map[string]*Component
	connections   []*Connection
}

// NewComposite creates a composite of the given type, initialized to Ready.
func NewComposite(id ComponentID, compositeType CompositeType) (*Composite, error) {
	if !compositeType.Valid() {
		return nil, fmt.Errorf("invalid composite type %q", compositeType)
	}
	base := newConceivedComponent(id, TypeComposite)
	if err := base.initialize(); err != nil {
		return nil, err
	}
	return &Composite{
		Component:     base,
		compositeType: compositeType,
		children:      make(map[string]*Component),
	}, nil
}

// CompositeType returns the wiring pattern of this composite.
func (c *Composite) CompositeType() CompositeType { return c.compositeType }

// isModifiable reports whether children and connections may change in the
// current state.
func (c *Composite) isModifiable() bool {
	s := c.State()
	return s.IsEarlyStage() || s == StateReady || s == StateAdapting
}

// AddComponent adds a child component.
func (c *Composite) AddComponent(child *Component) error {
	if child == nil {
		return fmt.Errorf("child component cannot be nil")
	}
	if !c.isModifiable() {
		return &InvalidOperationError{ID: c.ID(), Operation: "addComponent", State: string(c.State())}
	}
	c.cmu.Lock()
	defer c.cmu.Unlock()
	key := child.ID().String()
	if _, exists := c.children[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateComponent, child.ID().ShortID())
	}
	c.children[key] = child
	c.logActivity("added child: " + child.ID().ShortID())
	return nil
}

// RemoveComponent removes a child and its connections.
func (c *Composite) RemoveComponent(id ComponentID) error {
	if !c.isModifiable() {
		return &InvalidOperationError{ID: c.ID(), Operation: "removeComponent", State: string(c.State())}
	}
	c.cmu.Lock()
	defer c.cmu.Unlock()
	key := id.String()
	if _, exists := c.children[key]; !exists {
		return fmt.Errorf("%w: %s", ErrComponentNotFound, id.ShortID())
	}
	delete(c.children, key)

	kept := c.connections[:0]
	for _, conn := range c.connections {
		if !conn.SourceID().Equals(id) && !conn.TargetID().Equals(id) {
			kept = append(kept, conn)
		}
	}
	c.connections = kept
	c.logActivity("removed child: " + id.ShortID())
	return nil
}

// GetComponent returns a child by ID.
func (c *Composite) GetComponent(id ComponentID) (*Component, bool) {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	child, ok := c.children[id.String()]
	return child, ok
}

// Components returns the children in unspecified order.
func (c *Composite) Components() []*Component {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	out := make([]*Component, 0, len(c.children))
	for _, child := range c.children {
		out = append(out, child)
	}
	return out
}

// ContainsComponent reports whether the child is present.
func (c *Composite) ContainsComponent(id ComponentID) bool {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	_, ok := c.children[id.String()]
	return ok
}

// Connect creates a typed connection between two existing children and
// raises a ComponentConnectionEvent.
func (c *Composite) Connect(sourceID, targetID ComponentID, ct ConnectionType, description string) (*Connection, error) {
	if !c.isModifiable() {
		return nil, &InvalidOperationError{ID: c.ID(), Operation: "connect", State: string(c.State())}
	}
	c.cmu.Lock()
	defer c.cmu.Unlock()
	if _, ok := c.children[sourceID.String()]; !ok {
		return nil, fmt.Errorf("%w: source %s", ErrComponentNotFound, sourceID.ShortID())
	}
	if _, ok := c.children[targetID.String()]; !ok {
		return nil, fmt.Errorf("%w: target %s", ErrComponentNotFound, targetID.ShortID())
	}

	conn := NewConnection(sourceID, targetID, ct, description)
	c.connections = append(c.connections, conn)
	c.logActivity(fmt.Sprintf("created %s connection %s -> %s", ct, sourceID.ShortID(), targetID.ShortID()))

	c.mu.Lock()
	c.events = append(c.events, NewComponentConnectionEvent(sourceID, targetID, ct, description))
	c.mu.Unlock()

	return conn, nil
}

// Disconnect removes a connection by ID.
func (c *Composite) Disconnect(connectionID string) error {
	if !c.isModifiable() {
		return &InvalidOperationError{ID: c.ID(), Operation: "disconnect", State: string(c.State())}
	}
	c.cmu.Lock()
	defer c.cmu.Unlock()
	for i, conn := range c.connections {
		if conn.ID() == connectionID {
			c.connections = append(c.connections[:i], c.connections[i+1:]...)
			c.logActivity("removed connection: " + connectionID)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrConnectionNotFound, connectionID)
}

// Connections returns all connections.
func (c *Composite) Connections() []*Connection {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	return append([]*Connection(nil), c.connections...)
}

// ConnectionsByType returns connections of one type.
func (c *Composite) ConnectionsByType(ct ConnectionType) []*Connection {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	var out []*Connection
	for _, conn := range c.connections {
		if conn.Type() == ct {
			out = append(out, conn)
		}
	}
	return out
}

// ConnectionsFor returns connections touching the given component.
func (c *Composite) ConnectionsFor(id ComponentID) []*Connection {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	var out []*Connection
	for _, conn := range c.connections {
		if conn.SourceID().Equals(id) || conn.TargetID().Equals(id) {
			out = append(out, conn)
		}
	}
	return out
}

// Activate activates the composite, then its Ready children and all
// connections. Child activation failures are logged without failing the
// composite.
func (c *Composite) Activate() error {
	if err := c.Component.Activate(); err != nil {
		return err
	}
	c.cmu.Lock()
	defer c.cmu.Unlock()
	for _, child := range c.children {
		if child.State() != StateReady {
			continue
		}
		if err := child.Activate(); err != nil {
			c.logActivity(fmt.Sprintf("failed to activate child %s: %v", child.ID().ShortID(), err))
			continue
		}
		c.logActivity("activated child: " + child.ID().ShortID())
	}
	for _, conn := range c.connections {
		conn.Activate()
	}
	return nil
}

// Deactivate deactivates Active children and connections first, then the
// composite itself.
func (c *Composite) Deactivate() error {
	c.cmu.Lock()
	for _, child := range c.children {
		if child.State() != StateActive {
			continue
		}
		if err := child.Deactivate(); err != nil {
			c.logActivity(fmt.Sprintf("failed to deactivate child %s: %v", child.ID().ShortID(), err))
			continue
		}
		c.logActivity("deactivated child: " + child.ID().ShortID())
	}
	for _, conn := range c.connections {
		conn.Deactivate()
	}
	c.cmu.Unlock()
	return c.Component.Deactivate()
}

// Terminate terminates children first, then the composite itself.
func (c *Composite) Terminate() error {
	c.cmu.Lock()
	for _, child := range c.children {
		if child.State() == StateTerminated {
			continue
		}
		if err := child.Terminate(); err != nil {
			c.logActivity(fmt.Sprintf("failed to terminate child %s: %v", child.ID().ShortID(), err))
			continue
		}
		c.logActivity("terminated child: " + child.ID().ShortID())
	}
	c.cmu.Unlock()
	return c.Component.Terminate()
}
