package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultTerminationDelay is how long a tube lives before terminating
// itself unless the delay is extended.
const DefaultTerminationDelay = 60 * time.Second

// maxMimirLogEntries caps the internal log; the oldest entries are
// dropped once the cap is reached.
const maxMimirLogEntries = 1000

// TubeStatus is the coarse operational status of a legacy tube.
type TubeStatus string

const (
	TubeInitializing TubeStatus = "INITIALIZING"
	TubeReady        TubeStatus = "READY"
	TubeActive       TubeStatus = "ACTIVE"
	TubeDeactivating TubeStatus = "DEACTIVATING"
	TubeTerminated   TubeStatus = "TERMINATED"
	TubeError        TubeStatus = "ERROR"
	TubeRecovering   TubeStatus = "RECOVERING"
)

// TubeLifecycleState is the fine-grained developmental state of a
// legacy tube.
type TubeLifecycleState string

const (
	TubeLifecycleConception         TubeLifecycleState = "CONCEPTION"
	TubeLifecycleInitializing       TubeLifecycleState = "INITIALIZING"
	TubeLifecycleConfiguring        TubeLifecycleState = "CONFIGURING"
	TubeLifecycleSpecializing       TubeLifecycleState = "SPECIALIZING"
	TubeLifecycleDevelopingFeatures TubeLifecycleState = "DEVELOPING_FEATURES"
	TubeLifecycleReady              TubeLifecycleState = "READY"
	TubeLifecycleTerminating        TubeLifecycleState = "TERMINATING"
	TubeLifecycleTerminated         TubeLifecycleState = "TERMINATED"
)

// Tube is the legacy processing unit. Its identity is a SHA-256 digest
// of the creation reason and environment, it keeps an internal
// timestamped log (the mimir log), and it terminates itself after a
// configurable delay unless extended.
type Tube struct {
	mu sync.Mutex

	uniqueID       string
	reason         string
	parentID       string
	lineage        []string
	mimirLog       []string
	environment    map[string]string
	status         TubeStatus
	lifecycleState TubeLifecycleState
	conceivedAt    time.Time

	terminationTimer *time.Timer
}

// NewTube creates a root tube, walks it through its early lifecycle and
// arms the default termination timer.
func NewTube(reason string, environment map[string]string) (*Tube, error) {
	return newTube(reason, environment, nil)
}

// NewChildTube creates a tube descending from a parent. The child's ID
// digest includes the parent's, and the parent's lineage is inherited.
func NewChildTube(reason string, environment map[string]string, parent *Tube) (*Tube, error) {
	if parent == nil {
		return nil, fmt.Errorf("parent tube cannot be nil for child tube creation")
	}
	return newTube(reason, environment, parent)
}

func newTube(reason string, environment map[string]string, parent *Tube) (*Tube, error) {
	if reason == "" {
		return nil, fmt.Errorf("reason cannot be empty")
	}
	if environment == nil {
		environment = make(map[string]string)
	}

	seed := reason + environmentDigestInput(environment)
	if parent != nil {
		seed = reason + parent.UniqueID() + environmentDigestInput(environment)
	}

	t := &Tube{
		uniqueID:       sha256Hex(seed),
		reason:         reason,
		lineage:        []string{reason},
		environment:    environment,
		status:         TubeInitializing,
		lifecycleState: TubeLifecycleConception,
		conceivedAt:    time.Now().UTC(),
	}
	t.logToMimir("Tube conceived at: " + t.conceivedAt.Format(time.RFC3339Nano))

	if parent != nil {
		t.parentID = parent.UniqueID()
		t.lineage = append(t.lineage, parent.Lineage()...)
		t.logToMimir("Created child tube identity with parent: " + t.parentID)
	} else {
		t.logToMimir("Created Adam tube identity: " + t.uniqueID)
	}

	t.logToMimir("Tube entering initialization phase")
	t.lifecycleState = TubeLifecycleInitializing
	t.logToMimir("Initialization reason: " + reason)
	t.proceedThroughEarlyLifecycle()

	t.terminationTimer = time.AfterFunc(DefaultTerminationDelay, t.Terminate)
	t.logToMimir(fmt.Sprintf("Termination delay set to %v", DefaultTerminationDelay))

	t.lifecycleState = TubeLifecycleReady
	t.status = TubeReady
	t.logToMimir("Tube ready for operation")

	if parent != nil {
		parent.registerChild(t)
	}
	return t, nil
}

// proceedThroughEarlyLifecycle walks the developmental phases, recording
// each with its biological analog as the legacy log format did.
func (t *Tube) proceedThroughEarlyLifecycle() {
	t.logToMimir("Beginning early lifecycle development")
	t.lifecycleState = TubeLifecycleConfiguring
	t.logToMimir("Tube entering CONFIGURING phase (analog: Blastulation)")
	t.lifecycleState = TubeLifecycleSpecializing
	t.logToMimir("Tube entering SPECIALIZING phase (analog: Gastrulation)")
	t.lifecycleState = TubeLifecycleDevelopingFeatures
	t.logToMimir("Tube entering DEVELOPING_FEATURES phase (analog: Organogenesis)")
	t.logToMimir("Completed early lifecycle development")
}

func (t *Tube) registerChild(child *Tube) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logToMimirLocked("Registering child tube: " + child.UniqueID())
}

// UniqueID returns the SHA-256 identity of the tube.
func (t *Tube) UniqueID() string { return t.uniqueID }

// Reason returns the creation reason.
func (t *Tube) Reason() string { return t.reason }

// ParentID returns the parent tube's ID, empty for Adam tubes.
func (t *Tube) ParentID() string { return t.parentID }

// IsAdam reports whether the tube has no parent.
func (t *Tube) IsAdam() bool { return t.parentID == "" }

// Environment returns a copy of the environment parameters.
func (t *Tube) Environment() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.environment))
	for k, v := range t.environment {
		out[k] = v
	}
	return out
}

// Status returns the current tube status.
func (t *Tube) Status() TubeStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SetStatus sets the status and records the change in the mimir log.
func (t *Tube) SetStatus(status TubeStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	t.logToMimirLocked("Status changed to: " + string(status))
}

// LifecycleState returns the fine-grained developmental state.
func (t *Tube) LifecycleState() TubeLifecycleState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lifecycleState
}

// Lineage returns a copy of the lineage entries.
func (t *Tube) Lineage() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lineage...)
}

// AddToLineage appends a reason to the lineage. Empty entries are
// ignored.
func (t *Tube) AddToLineage(reason string) {
	if reason == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lineage = append(t.lineage, reason)
	t.logToMimirLocked("Added to lineage: " + reason)
}

// SetTerminationDelay reschedules the self-termination timer.
func (t *Tube) SetTerminationDelay(delay time.Duration) error {
	if delay <= 0 {
		return fmt.Errorf("termination delay must be positive")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == TubeTerminated {
		return fmt.Errorf("cannot set termination delay: tube is already terminated")
	}
	if t.terminationTimer != nil {
		t.terminationTimer.Stop()
	}
	t.terminationTimer = time.AfterFunc(delay, t.Terminate)
	t.logToMimirLocked(fmt.Sprintf("Termination delay set to %v", delay))
	return nil
}

// Terminate stops the timer, preserves knowledge and moves the tube to
// its terminal state. Idempotent.
func (t *Tube) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == TubeTerminated {
		return
	}
	if t.terminationTimer != nil {
		t.terminationTimer.Stop()
		t.terminationTimer = nil
	}
	t.lifecycleState = TubeLifecycleTerminating
	t.logToMimirLocked("Tube entering termination phase")
	t.logToMimirLocked("Preserving knowledge before termination")
	t.logToMimirLocked("Releasing allocated resources")
	t.lifecycleState = TubeLifecycleTerminated
	t.status = TubeTerminated
	t.logToMimirLocked("Tube terminated at: " + time.Now().UTC().Format(time.RFC3339Nano))
}

// MimirLog returns a copy of the tube's internal log.
func (t *Tube) MimirLog() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.mimirLog...)
}

// MimirLogSize returns the number of internal log entries.
func (t *Tube) MimirLogSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.mimirLog)
}

func (t *Tube) logToMimir(entry string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logToMimirLocked(entry)
}

func (t *Tube) logToMimirLocked(entry string) {
	t.mimirLog = append(t.mimirLog, time.Now().UTC().Format(time.RFC3339Nano)+": "+entry)
	if len(t.mimirLog) > maxMimirLogEntries {
		t.mimirLog = append(t.mimirLog[:0], t.mimirLog[len(t.mimirLog)-maxMimirLogEntries:]...)
	}
}

func sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// environmentDigestInput renders environment parameters in a stable
// order so equal environments produce equal identity digests.
func environmentDigestInput(environment map[string]string) string {
	keys := make([]string, 0, len(environment))
	for k := range environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += k + "=" + environment[k] + ";"
	}
	return out
}
