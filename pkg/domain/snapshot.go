package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshots are the serializable projections of the domain entities used
// by persistence adapters. They carry everything needed to restore an
// entity without replaying its lifecycle.

// IdentitySnapshot is the serialized form of a ComponentID.
type IdentitySnapshot struct {
	ID        string    `json:"id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Lineage   []string  `json:"lineage,omitempty"`
}

// ComponentSnapshot is the serialized form of a Component.
type ComponentSnapshot struct {
	Identity    IdentitySnapshot `json:"identity"`
	Type        string           `json:"type"`
	State       State            `json:"state"`
	CreatedAt   time.Time        `json:"created_at"`
	Lineage     []string         `json:"lineage,omitempty"`
	Properties  map[string]any   `json:"properties,omitempty"`
	ActivityLog []string         `json:"activity_log,omitempty"`
}

// ConnectionSnapshot is the serialized form of a Connection.
type ConnectionSnapshot struct {
	ID          string           `json:"id"`
	Source      IdentitySnapshot `json:"source"`
	Target      IdentitySnapshot `json:"target"`
	Type        ConnectionType   `json:"type"`
	Description string           `json:"description,omitempty"`
	Active      bool             `json:"active"`
}

// CompositeSnapshot is the serialized form of a Composite.
type CompositeSnapshot struct {
	Component     ComponentSnapshot    `json:"component"`
	CompositeType CompositeType        `json:"composite_type"`
	Children      []ComponentSnapshot  `json:"children,omitempty"`
	Connections   []ConnectionSnapshot `json:"connections,omitempty"`
}

// MachineSnapshot is the serialized form of a Machine.
type MachineSnapshot struct {
	Identity    IdentitySnapshot    `json:"identity"`
	Type        MachineType         `json:"type"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Version     string              `json:"version"`
	State       MachineState        `json:"state"`
	CreatedAt   time.Time           `json:"created_at"`
	Composites  []CompositeSnapshot `json:"composites,omitempty"`
	ActivityLog []string            `json:"activity_log,omitempty"`
}

func copyProperties(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Snapshot returns the serialized form of the identity.
func (id ComponentID) Snapshot() IdentitySnapshot {
	return IdentitySnapshot{
		ID:        id.value.String(),
		Reason:    id.reason,
		CreatedAt: id.createdAt,
		Lineage:   append([]string(nil), id.lineage...),
	}
}

// RestoreComponentID rebuilds an identity from its snapshot.
func RestoreComponentID(snap IdentitySnapshot) (ComponentID, error) {
	v, err := uuid.Parse(snap.ID)
	if err != nil {
		return ComponentID{}, fmt.Errorf("restore identity: invalid UUID format %q: %w", snap.ID, err)
	}
	return ComponentID{
		value:     v,
		reason:    snap.Reason,
		createdAt: snap.CreatedAt,
		lineage:   append([]string(nil), snap.Lineage...),
	}, nil
}

// Snapshot returns the serialized form of the component.
func (c *Component) Snapshot() ComponentSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComponentSnapshot{
		Identity:    c.id.Snapshot(),
		Type:        c.componentType,
		State:       c.state,
		CreatedAt:   c.createdAt,
		Lineage:     append([]string(nil), c.lineage...),
		Properties:  copyProperties(c.properties),
		ActivityLog: append([]string(nil), c.activityLog...),
	}
}

// RestoreComponent rebuilds a component at its snapshotted state without
// replaying the lifecycle. No events are raised.
func RestoreComponent(snap ComponentSnapshot) (*Component, error) {
	id, err := RestoreComponentID(snap.Identity)
	if err != nil {
		return nil, err
	}
	if !snap.State.Valid() {
		return nil, fmt.Errorf("restore component %s: unknown state %q", id.ShortID(), snap.State)
	}
	props := copyProperties(snap.Properties)
	if props == nil {
		props = make(map[string]any)
	}
	return &Component{
		id:            id,
		componentType: snap.Type,
		state:         snap.State,
		lineage:       append([]string(nil), snap.Lineage...),
		activityLog:   append([]string(nil), snap.ActivityLog...),
		createdAt:     snap.CreatedAt,
		properties:    props,
	}, nil
}

// Snapshot returns the serialized form of the connection.
func (c *Connection) Snapshot() ConnectionSnapshot {
	return ConnectionSnapshot{
		ID:          c.id,
		Source:      c.sourceID.Snapshot(),
		Target:      c.targetID.Snapshot(),
		Type:        c.connType,
		Description: c.description,
		Active:      c.active,
	}
}

// RestoreConnection rebuilds a connection from its snapshot.
func RestoreConnection(snap ConnectionSnapshot) (*Connection, error) {
	source, err := RestoreComponentID(snap.Source)
	if err != nil {
		return nil, err
	}
	target, err := RestoreComponentID(snap.Target)
	if err != nil {
		return nil, err
	}
	return &Connection{
		id:          snap.ID,
		sourceID:    source,
		targetID:    target,
		connType:    snap.Type,
		description: snap.Description,
		active:      snap.Active,
	}, nil
}

// Snapshot returns the serialized form of the composite, children and
// connections included.
func (c *Composite) Snapshot() CompositeSnapshot {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	snap := CompositeSnapshot{
		Component:     c.Component.Snapshot(),
		CompositeType: c.compositeType,
	}
	for _, child := range c.children {
		snap.Children = append(snap.Children, child.Snapshot())
	}
	for _, conn := range c.connections {
		snap.Connections = append(snap.Connections, conn.Snapshot())
	}
	return snap
}

// RestoreComposite rebuilds a composite with its children and connections.
func RestoreComposite(snap CompositeSnapshot) (*Composite, error) {
	base, err := RestoreComponent(snap.Component)
	if err != nil {
		return nil, err
	}
	if !snap.CompositeType.Valid() {
		return nil, fmt.Errorf("restore composite %s: invalid composite type %q",
			base.ID().ShortID(), snap.CompositeType)
	}
	composite := &Composite{
		Component:     base,
		compositeType: snap.CompositeType,
		children:      make(map[string]*Component, len(snap.Children)),
	}
	for _, childSnap := range snap.Children {
		child, err := RestoreComponent(childSnap)
		if err != nil {
			return nil, err
		}
		composite.children[child.ID().String()] = child
	}
	for _, connSnap := range snap.Connections {
		conn, err := RestoreConnection(connSnap)
		if err != nil {
			return nil, err
		}
		composite.connections = append(composite.connections, conn)
	}
	return composite, nil
}

// Snapshot returns the serialized form of the machine and its composites.
func (m *Machine) Snapshot() MachineSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MachineSnapshot{
		Identity:    m.id.Snapshot(),
		Type:        m.machineType,
		Name:        m.name,
		Description: m.description,
		Version:     m.version,
		State:       m.state,
		CreatedAt:   m.createdAt,
		ActivityLog: append([]string(nil), m.activityLog...),
	}
	for _, c := range m.composites {
		snap.Composites = append(snap.Composites, c.Snapshot())
	}
	return snap
}

// RestoreMachine rebuilds a machine at its snapshotted state. No events
// are raised.
func RestoreMachine(snap MachineSnapshot) (*Machine, error) {
	id, err := RestoreComponentID(snap.Identity)
	if err != nil {
		return nil, err
	}
	if snap.Name == "" {
		return nil, fmt.Errorf("restore machine %s: empty name", id.ShortID())
	}
	m := &Machine{
		id:          id,
		machineType: snap.Type,
		name:        snap.Name,
		description: snap.Description,
		version:     snap.Version,
		createdAt:   snap.CreatedAt,
		composites:  make(map[string]*Composite, len(snap.Composites)),
		activityLog: append([]string(nil), snap.ActivityLog...),
		state:       snap.State,
	}
	for _, compositeSnap := range snap.Composites {
		c, err := RestoreComposite(compositeSnap)
		if err != nil {
			return nil, err
		}
		m.composites[c.ID().String()] = c
	}
	return m, nil
}
