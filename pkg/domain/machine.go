package domain

import (
	"fmt"
	"sync"
	"time"
)

// MachineState is the coarse operational state of a machine.
type MachineState string

const (
	MachineCreated   MachineState = "created"
	MachineReady     MachineState = "ready"
	MachineRunning   MachineState = "running"
	MachineStopped   MachineState = "stopped"
	MachinePaused    MachineState = "paused"
	MachineError     MachineState = "error"
	MachineDestroyed MachineState = "destroyed"
)

// MachineType identifies what a machine orchestrates its composites for.
type MachineType string

const (
	MachineTypeStandard      MachineType = "standard"
	MachineTypeDataProcessor MachineType = "data_processor"
	MachineTypeAnalytics     MachineType = "analytics"
	MachineTypeMonitoring    MachineType = "monitoring"
	MachineTypeWorkflow      MachineType = "workflow"
	MachineTypeProcessing    MachineType = "processing"
)

// machineTransitions is the legality table for machine state changes.
// Destroyed is terminal; self-transitions are treated as no-ops.
var machineTransitions = map[MachineState][]MachineState{
	MachineCreated:   {MachineReady, MachineError, MachineDestroyed},
	MachineReady:     {MachineRunning, MachineError, MachineDestroyed},
	MachineRunning:   {MachineStopped, MachinePaused, MachineError, MachineDestroyed},
	MachineStopped:   {MachineRunning, MachineError, MachineDestroyed},
	MachinePaused:    {MachineRunning, MachineError, MachineDestroyed},
	MachineError:     {MachineReady, MachineDestroyed},
	MachineDestroyed: {},
}

// machineModifiableStates are the states in which structural changes
// (composites, version) are allowed.
var machineModifiableStates = []MachineState{MachineCreated, MachineReady, MachineStopped, MachinePaused}

// machineOperationStates maps operations to the states permitting them.
// Operations absent from the map default to the modifiable states.
var machineOperationStates = map[string][]MachineState{
	"initialize":     {MachineCreated},
	"start":          {MachineReady, MachineStopped},
	"stop":           {MachineRunning},
	"pause":          {MachineRunning},
	"resume":         {MachinePaused},
	"reset":          {MachineError, MachineStopped},
	"setErrorState":  {MachineCreated, MachineReady, MachineRunning, MachinePaused, MachineStopped},
	"resetFromError": {MachineError},
	"destroy":        {MachineCreated, MachineReady, MachineRunning, MachineStopped, MachinePaused, MachineError},
}

// CanMachineTransition reports whether from -> to is a legal machine state
// change.
func CanMachineTransition(from, to MachineState) bool {
	if from == to {
		return true
	}
	for _, t := range machineTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// MachineOperationAllowed reports whether the named operation is permitted
// in the given state.
func MachineOperationAllowed(operation string, state MachineState) bool {
	states, ok := machineOperationStates[operation]
	if !ok {
		states = machineModifiableStates
	}
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

// Machine orchestrates a set of composites through a shared coarse state.
// All methods are safe for concurrent use.
type Machine struct {
	mu sync.Mutex

	id          ComponentID
	machineType MachineType
	name        string
	description string
	version     string
	createdAt   time.Time
	composites  map[string]*Composite
	activityLog []string
	events      []Event
	state       MachineState
}

// NewMachine creates a machine in the Created state.
func NewMachine(id ComponentID, machineType MachineType, name, description, version string) (*Machine, error) {
	if name == "" {
		return nil, fmt.Errorf("machine name cannot be empty")
	}
	if version == "" {
		version = "1.0.0"
	}
	m := &Machine{
		id:          id,
		machineType: machineType,
		name:        name,
		description: description,
		version:     version,
		createdAt:   time.Now().UTC(),
		composites:  make(map[string]*Composite),
		state:       MachineCreated,
	}
	m.logActivityLocked(fmt.Sprintf("machine created: %s (%s)", name, machineType))
	return m, nil
}

func (m *Machine) ID() ComponentID      { return m.id }
func (m *Machine) Type() MachineType    { return m.machineType }
func (m *Machine) Name() string         { return m.name }
func (m *Machine) Description() string  { return m.description }
func (m *Machine) CreatedAt() time.Time { return m.createdAt }

// Version returns the machine version string.
func (m *Machine) Version() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// State returns the current machine state.
func (m *Machine) State() MachineState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetVersion updates the version; allowed only in modifiable states.
func (m *Machine) SetVersion(version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("setVersion"); err != nil {
		return err
	}
	m.version = version
	m.logActivityLocked("version set to " + version)
	return nil
}

// AddComposite registers a composite with the machine.
func (m *Machine) AddComposite(c *Composite) error {
	if c == nil {
		return fmt.Errorf("composite cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("addComponent"); err != nil {
		return err
	}
	key := c.ID().String()
	if _, exists := m.composites[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateComponent, c.ID().ShortID())
	}
	m.composites[key] = c
	m.logActivityLocked("added composite: " + c.ID().ShortID())
	return nil
}

// RemoveComposite removes a composite by ID.
func (m *Machine) RemoveComposite(id ComponentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("removeComponent"); err != nil {
		return err
	}
	key := id.String()
	if _, exists := m.composites[key]; !exists {
		return fmt.Errorf("%w: %s", ErrComponentNotFound, id.ShortID())
	}
	delete(m.composites, key)
	m.logActivityLocked("removed composite: " + id.ShortID())
	return nil
}

// GetComposite returns a composite by ID.
func (m *Machine) GetComposite(id ComponentID) (*Composite, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.composites[id.String()]
	return c, ok
}

// Composites returns the registered composites in unspecified order.
func (m *Machine) Composites() []*Composite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Composite, 0, len(m.composites))
	for _, c := range m.composites {
		out = append(out, c)
	}
	return out
}

// Initialize prepares the machine for operation, moving it to Ready.
func (m *Machine) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("initialize"); err != nil {
		return err
	}
	m.logActivityLocked("initializing machine")
	return m.setStateLocked(MachineReady, "initialization completed")
}

// Start activates all composites and moves the machine to Running.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("start"); err != nil {
		return err
	}
	for _, c := range m.composites {
		if c.State() != StateReady {
			continue
		}
		if err := c.Activate(); err != nil {
			m.logActivityLocked(fmt.Sprintf("failed to activate composite %s: %v", c.ID().ShortID(), err))
			continue
		}
		m.logActivityLocked("activated composite: " + c.ID().ShortID())
	}
	return m.setStateLocked(MachineRunning, "machine started")
}

// Stop deactivates all composites and moves the machine to Stopped.
func (m *Machine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("stop"); err != nil {
		return err
	}
	m.deactivateCompositesLocked()
	return m.setStateLocked(MachineStopped, "machine stopped")
}

// Pause suspends active composites and moves the machine to Paused.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("pause"); err != nil {
		return err
	}
	m.deactivateCompositesLocked()
	return m.setStateLocked(MachinePaused, "machine paused")
}

// deactivateCompositesLocked returns active composites to Ready. Failures
// are logged and skipped so the machine transition still proceeds.
func (m *Machine) deactivateCompositesLocked() {
	for _, c := range m.composites {
		if c.State() != StateActive {
			continue
		}
		if err := c.Deactivate(); err != nil {
			m.logActivityLocked(fmt.Sprintf("failed to deactivate composite %s: %v", c.ID().ShortID(), err))
			continue
		}
		m.logActivityLocked("deactivated composite: " + c.ID().ShortID())
	}
}

// Resume reactivates composites of a paused machine.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("resume"); err != nil {
		return err
	}
	for _, c := range m.composites {
		if c.State() != StateReady {
			continue
		}
		if err := c.Activate(); err != nil {
			m.logActivityLocked(fmt.Sprintf("failed to reactivate composite %s: %v", c.ID().ShortID(), err))
		}
	}
	return m.setStateLocked(MachineRunning, "machine resumed")
}

// Destroy terminates all composites and moves the machine to its terminal
// state.
func (m *Machine) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("destroy"); err != nil {
		return err
	}
	for _, c := range m.composites {
		if c.State() == StateTerminated {
			continue
		}
		if err := c.Terminate(); err != nil {
			m.logActivityLocked(fmt.Sprintf("failed to terminate composite %s: %v", c.ID().ShortID(), err))
		}
	}
	return m.setStateLocked(MachineDestroyed, "machine destroyed")
}

// SetState transitions the machine, validating against the transition table
// and raising a MachineStateChangedEvent.
func (m *Machine) SetState(next MachineState, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setStateLocked(next, reason)
}

// SetErrorState moves the machine into Error. It reports false without
// error when the machine is already in Error or Destroyed.
func (m *Machine) SetErrorState(reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MachineError || m.state == MachineDestroyed {
		return false, nil
	}
	if err := m.setStateLocked(MachineError, "error: "+reason); err != nil {
		return false, err
	}
	return true, nil
}

// ResetFromError returns an errored machine to Ready.
func (m *Machine) ResetFromError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOperationLocked("resetFromError"); err != nil {
		return err
	}
	return m.setStateLocked(MachineReady, "reset from error state")
}

// ActivityLog returns a copy of the recorded activity entries.
func (m *Machine) ActivityLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.activityLog...)
}

// PendingEvents returns the events raised since the last drain.
func (m *Machine) PendingEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// ClearEvents drops all pending events, returning the drained slice.
func (m *Machine) ClearEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	drained := m.events
	m.events = nil
	return drained
}

func (m *Machine) setStateLocked(next MachineState, reason string) error {
	if !CanMachineTransition(m.state, next) {
		return &InvalidMachineTransitionError{ID: m.id, From: m.state, To: next}
	}
	if m.state == next {
		return nil
	}
	previous := m.state
	m.state = next
	m.logActivityLocked(fmt.Sprintf("state transition %s -> %s: %s", previous, next, reason))
	m.events = append(m.events, NewMachineStateChangedEvent(m.id, previous, next, reason))
	return nil
}

func (m *Machine) checkOperationLocked(operation string) error {
	if !MachineOperationAllowed(operation, m.state) {
		return &InvalidOperationError{ID: m.id, Operation: operation, State: string(m.state)}
	}
	return nil
}

func (m *Machine) logActivityLocked(entry string) {
	m.activityLog = append(m.activityLog, time.Now().UTC().Format(time.RFC3339)+": "+entry)
}

func (m *Machine) String() string {
	return fmt.Sprintf("Machine[%s, name=%s, type=%s, state=%s]", m.id.ShortID(), m.name, m.machineType, m.State())
}
