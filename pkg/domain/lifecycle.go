package domain

// State is the unified component state, combining operational status and
// developmental lifecycle phases into a single progression.
type State string

const (
	// Lifecycle (embryonic) states.
	StateConception         State = "conception"
	StateInitializing       State = "initializing"
	StateConfiguring        State = "configuring"
	StateSpecializing       State = "specializing"
	StateDevelopingFeatures State = "developing_features"

	// Operational states.
	StateReady        State = "ready"
	StateActive       State = "active"
	StateWaiting      State = "waiting"
	StateAdapting     State = "adapting"
	StateTransforming State = "transforming"

	// Advanced states.
	StateStable      State = "stable"
	StateSpawning    State = "spawning"
	StateDegraded    State = "degraded"
	StateMaintaining State = "maintaining"

	// Termination states.
	StateTerminating State = "terminating"
	StateTerminated  State = "terminated"
	StateArchived    State = "archived"
)

// StateCategory groups states by their role in the component's life.
type StateCategory string

const (
	CategoryLifecycle   StateCategory = "lifecycle"
	CategoryOperational StateCategory = "operational"
	CategoryAdvanced    StateCategory = "advanced"
	CategoryTermination StateCategory = "termination"
)

type stateInfo struct {
	category    StateCategory
	description string
	analog      string
}

var stateInfos = map[State]stateInfo{
	StateConception:         {CategoryLifecycle, "Initial creation", "Fertilization/Zygote"},
	StateInitializing:       {CategoryLifecycle, "Early structure formation", "Cleavage"},
	StateConfiguring:        {CategoryLifecycle, "Establishing boundaries", "Blastulation"},
	StateSpecializing:       {CategoryLifecycle, "Determining core functions", "Gastrulation"},
	StateDevelopingFeatures: {CategoryLifecycle, "Building specific capabilities", "Organogenesis"},

	StateReady:        {CategoryOperational, "Prepared but not active", ""},
	StateActive:       {CategoryOperational, "Fully operational", ""},
	StateWaiting:      {CategoryOperational, "Temporarily inactive but responsive", ""},
	StateAdapting:     {CategoryOperational, "Adjusting to environmental changes", ""},
	StateTransforming: {CategoryOperational, "Undergoing major changes", ""},

	StateStable:      {CategoryAdvanced, "Optimal performance", ""},
	StateSpawning:    {CategoryAdvanced, "Creating child components", ""},
	StateDegraded:    {CategoryAdvanced, "Experiencing performance issues", ""},
	StateMaintaining: {CategoryAdvanced, "Undergoing repair operations", ""},

	StateTerminating: {CategoryTermination, "Shutting down", ""},
	StateTerminated:  {CategoryTermination, "Completed shutdown", ""},
	StateArchived:    {CategoryTermination, "Knowledge preserved after termination", ""},
}

// stateTransitions is the legality table for component state changes.
// Self-transitions are always allowed and not listed.
var stateTransitions = map[State][]State{
	StateConception:         {StateInitializing},
	StateInitializing:       {StateConfiguring},
	StateConfiguring:        {StateSpecializing},
	StateSpecializing:       {StateDevelopingFeatures},
	StateDevelopingFeatures: {StateReady},

	StateReady:        {StateActive, StateTerminating},
	StateActive:       {StateReady, StateWaiting, StateAdapting, StateTransforming, StateTerminating},
	StateWaiting:      {StateActive, StateReady, StateAdapting, StateTerminating},
	StateAdapting:     {StateActive, StateReady, StateWaiting, StateStable, StateTerminating},
	StateTransforming: {StateActive, StateReady, StateStable, StateSpawning, StateTerminating},

	StateStable:      {StateSpawning, StateDegraded, StateMaintaining, StateActive, StateReady, StateTerminating},
	StateSpawning:    {StateActive, StateReady, StateStable, StateTerminating},
	StateDegraded:    {StateMaintaining, StateActive, StateReady, StateTerminating},
	StateMaintaining: {StateActive, StateStable, StateReady, StateTerminating},

	StateTerminating: {StateTerminated},
	StateTerminated:  {StateArchived},
	StateArchived:    {},
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := stateInfos[s]
	return ok
}

// Category returns the category the state belongs to.
func (s State) Category() StateCategory {
	return stateInfos[s].category
}

// Description returns the human-readable description of the state.
func (s State) Description() string {
	return stateInfos[s].description
}

// BiologicalAnalog returns the developmental analog for lifecycle states,
// or an empty string for states without one.
func (s State) BiologicalAnalog() string {
	return stateInfos[s].analog
}

// IsLifecycle reports whether the state is a developmental phase.
func (s State) IsLifecycle() bool { return s.Category() == CategoryLifecycle }

// IsOperational reports whether the state is a runtime status.
func (s State) IsOperational() bool { return s.Category() == CategoryOperational }

// IsAdvanced reports whether the state represents maturity behavior.
func (s State) IsAdvanced() bool { return s.Category() == CategoryAdvanced }

// IsTermination reports whether the state is part of end-of-life.
func (s State) IsTermination() bool { return s.Category() == CategoryTermination }

// IsEarlyStage reports whether the component is still forming and therefore
// freely modifiable.
func (s State) IsEarlyStage() bool {
	switch s {
	case StateConception, StateInitializing, StateConfiguring, StateSpecializing, StateDevelopingFeatures:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool { return s == StateArchived }

// CanTransitionTo reports whether the transition s -> to is legal.
// Unknown states never transition.
func (s State) CanTransitionTo(to State) bool {
	if !s.Valid() || !to.Valid() {
		return false
	}
	if s == to {
		return true
	}
	for _, t := range stateTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// AllStates returns every state in lifecycle order.
func AllStates() []State {
	return []State{
		StateConception,
		StateInitializing,
		StateConfiguring,
		StateSpecializing,
		StateDevelopingFeatures,
		StateReady,
		StateActive,
		StateWaiting,
		StateAdapting,
		StateTransforming,
		StateStable,
		StateSpawning,
		StateDegraded,
		StateMaintaining,
		StateTerminating,
		StateTerminated,
		StateArchived,
	}
}

// NextStates returns the legal target states from s, excluding the
// self-transition.
func (s State) NextStates() []State {
	targets := stateTransitions[s]
	out := make([]State, len(targets))
	copy(out, targets)
	return out
}
