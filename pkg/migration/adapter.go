package migration

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/domain"
)

// TubeComponentType is the component type code assigned to wrapped
// tubes.
const TubeComponentType = "tube"

// PropertyLegacyTubeID is the component property carrying the wrapped
// tube's SHA-256 identity.
const PropertyLegacyTubeID = "legacy_tube_id"

// StateFromStatus maps a tube status onto the component lifecycle
// state. Error and Recovering both land on Degraded; unknown statuses
// default to Ready.
func StateFromStatus(status TubeStatus) domain.State {
	switch status {
	case TubeInitializing:
		return domain.StateInitializing
	case TubeReady:
		return domain.StateReady
	case TubeActive:
		return domain.StateActive
	case TubeDeactivating:
		return domain.StateTerminating
	case TubeTerminated:
		return domain.StateTerminated
	case TubeError, TubeRecovering:
		return domain.StateDegraded
	default:
		return domain.StateReady
	}
}

// StatusFromState maps a component lifecycle state onto a tube status.
// All embryonic states collapse to Initializing; unknown states default
// to Ready.
func StatusFromState(state domain.State) TubeStatus {
	switch state {
	case domain.StateConception, domain.StateInitializing, domain.StateConfiguring,
		domain.StateSpecializing, domain.StateDevelopingFeatures:
		return TubeInitializing
	case domain.StateReady:
		return TubeReady
	case domain.StateActive:
		return TubeActive
	case domain.StateDegraded:
		return TubeError
	case domain.StateTerminating:
		return TubeDeactivating
	case domain.StateTerminated, domain.StateArchived:
		return TubeTerminated
	default:
		return TubeReady
	}
}

// TubeAdapter wraps legacy tubes as components and keeps the two state
// models synchronized, recording every lossy mapping in its issue log.
type TubeAdapter struct {
	issues *IssueLog
	logger *slog.Logger
}

// NewTubeAdapter creates an adapter reporting into the given issue log.
func NewTubeAdapter(issues *IssueLog, logger *slog.Logger) *TubeAdapter {
	if issues == nil {
		issues = NewIssueLog("tube", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TubeAdapter{issues: issues, logger: logger}
}

// Issues returns the adapter's issue log.
func (a *TubeAdapter) Issues() *IssueLog { return a.issues }

// ComponentIDForTube derives a deterministic component identity from
// the tube's SHA-256 ID, so wrapping the same tube twice yields the
// same component.
func ComponentIDForTube(t *Tube) (domain.ComponentID, error) {
	uid := uuid.NewSHA1(uuid.NameSpaceOID, []byte(t.UniqueID()))
	return domain.ParseComponentID(uid.String(), t.Reason())
}

// WrapTube creates a component mirroring the tube: same reason, the
// tube's lineage, a deterministic identity and the tube's current state.
func (a *TubeAdapter) WrapTube(t *Tube) (*domain.Component, error) {
	if t == nil {
		return nil, fmt.Errorf("tube cannot be nil")
	}
	id, err := ComponentIDForTube(t)
	if err != nil {
		return nil, fmt.Errorf("derive component identity: %w", err)
	}

	c, err := domain.NewComponentOfType(id, TubeComponentType)
	if err != nil {
		return nil, fmt.Errorf("wrap tube %s: %w", t.UniqueID()[:8], err)
	}
	c.SetProperty(PropertyLegacyTubeID, t.UniqueID())
	for i, entry := range t.Lineage() {
		if i == 0 {
			// The creation reason is already the first lineage entry.
			continue
		}
		c.AddToLineage(entry)
	}

	a.issues.ReportCustom(IssueLifecycle, SeverityInfo,
		"tube components don't require explicit initialization, wrapped directly")

	if err := a.SyncFromTube(c, t); err != nil {
		return nil, err
	}
	a.logger.Debug("wrapped legacy tube",
		"tube_id", t.UniqueID()[:8],
		"component_id", c.ID().ShortID(),
		"state", c.State(),
	)
	return c, nil
}

// SyncFromTube drives the component to the state the tube's status maps
// to, walking the lifecycle transition graph. Unreachable targets are
// recorded as issues.
func (a *TubeAdapter) SyncFromTube(c *domain.Component, t *Tube) error {
	target := StateFromStatus(t.Status())
	current := c.State()
	if current == target {
		return nil
	}

	path := statePath(current, target)
	if path == nil {
		a.issues.ReportStateTransition(SeverityWarning, string(t.Status()), string(target),
			fmt.Sprintf("no lifecycle path from %s to %s, component state left unchanged", current, target))
		return fmt.Errorf("no lifecycle path from %s to %s", current, target)
	}
	for _, next := range path {
		if err := c.TransitionTo(next, "synchronized from legacy tube"); err != nil {
			return fmt.Errorf("sync from tube: %w", err)
		}
	}
	a.issues.ReportStateTransition(SeverityInfo, string(t.Status()), string(target),
		fmt.Sprintf("state synchronized: %s -> %s (tube status %s)", current, target, t.Status()))
	return nil
}

// SyncToTube drives the tube's status to match the component state.
// The legacy model allowed direct Active to Terminated jumps only via
// Deactivating; such jumps are recorded as suspicious and routed
// through termination.
func (a *TubeAdapter) SyncToTube(c *domain.Component, t *Tube) {
	target := StatusFromState(c.State())
	current := t.Status()
	if current == target {
		return
	}

	if current == TubeActive && target == TubeTerminated {
		a.issues.ReportStateTransition(SeverityWarning, string(current), string(target),
			"potentially invalid state transition: ACTIVE -> TERMINATED should pass through DEACTIVATING")
	}

	if target == TubeTerminated {
		t.Terminate()
	} else {
		t.SetStatus(target)
	}
	a.issues.ReportStateTransition(SeverityInfo, string(current), string(target),
		fmt.Sprintf("tube status synchronized: %s -> %s (component state %s)", current, target, c.State()))
}

// statePath finds the shortest legal transition chain between two
// lifecycle states, excluding the starting state.
func statePath(from, to domain.State) []domain.State {
	if from == to {
		return []domain.State{}
	}
	type node struct {
		state domain.State
		path  []domain.State
	}
	visited := map[domain.State]bool{from: true}
	queue := []node{{state: from}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range current.state.NextStates() {
			if visited[next] {
				continue
			}
			path := append(append([]domain.State(nil), current.path...), next)
			if next == to {
				return path
			}
			visited[next] = true
			queue = append(queue, node{state: next, path: path})
		}
	}
	return nil
}
