package domain_test

import (
	"errors"
	"testing"

	"github.com/s8r-framework/s8r/pkg/domain"
)

func newTestMachine(t *testing.T) *domain.Machine {
	t.Helper()
	m, err := domain.NewMachine(domain.NewComponentID("test machine"), domain.MachineTypeDataProcessor, "ingest", "test machine", "")
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	return m
}

func TestCanMachineTransition(t *testing.T) {
	cases := []struct {
		from, to domain.MachineState
		want     bool
	}{
		{domain.MachineCreated, domain.MachineReady, true},
		{domain.MachineCreated, domain.MachineRunning, false},
		{domain.MachineReady, domain.MachineRunning, true},
		{domain.MachineRunning, domain.MachineStopped, true},
		{domain.MachineRunning, domain.MachinePaused, true},
		{domain.MachineStopped, domain.MachineRunning, true},
		{domain.MachinePaused, domain.MachineRunning, true},
		{domain.MachinePaused, domain.MachineStopped, false},
		{domain.MachineError, domain.MachineReady, true},
		{domain.MachineError, domain.MachineRunning, false},
		{domain.MachineDestroyed, domain.MachineReady, false},
		{domain.MachineRunning, domain.MachineRunning, true},
	}

	for _, tc := range cases {
		if got := domain.CanMachineTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanMachineTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestMachineOperationAllowed(t *testing.T) {
	if !domain.MachineOperationAllowed("initialize", domain.MachineCreated) {
		t.Error("initialize should be allowed in Created")
	}
	if domain.MachineOperationAllowed("initialize", domain.MachineReady) {
		t.Error("initialize should not be allowed in Ready")
	}
	if !domain.MachineOperationAllowed("start", domain.MachineStopped) {
		t.Error("start should be allowed in Stopped")
	}
	// Undefined operations fall back to the modifiable states.
	if !domain.MachineOperationAllowed("renameCluster", domain.MachineReady) {
		t.Error("unknown op should be allowed in modifiable state")
	}
	if domain.MachineOperationAllowed("renameCluster", domain.MachineRunning) {
		t.Error("unknown op should not be allowed while running")
	}
}

func TestNewMachine(t *testing.T) {
	m := newTestMachine(t)
	if got := m.State(); got != domain.MachineCreated {
		t.Errorf("state = %s", got)
	}
	if got := m.Version(); got != "1.0.0" {
		t.Errorf("default version = %q", got)
	}

	if _, err := domain.NewMachine(domain.NewComponentID("x"), domain.MachineTypeStandard, "", "", ""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestMachine_Lifecycle(t *testing.T) {
	m := newTestMachine(t)
	comp, err := domain.NewComposite(domain.NewComponentID("pipeline"), domain.CompositePipeline)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AddComposite(comp); err != nil {
		t.Fatalf("AddComposite failed: %v", err)
	}

	t.Run("start before initialize fails", func(t *testing.T) {
		var opErr *domain.InvalidOperationError
		if err := m.Start(); !errors.As(err, &opErr) {
			t.Fatalf("error = %v", err)
		}
	})

	t.Run("initialize", func(t *testing.T) {
		if err := m.Initialize(); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		if got := m.State(); got != domain.MachineReady {
			t.Errorf("state = %s", got)
		}
	})

	t.Run("start activates composites", func(t *testing.T) {
		if err := m.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if got := m.State(); got != domain.MachineRunning {
			t.Errorf("state = %s", got)
		}
		if got := comp.State(); got != domain.StateActive {
			t.Errorf("composite state = %s", got)
		}
	})

	t.Run("structural changes refused while running", func(t *testing.T) {
		other, err := domain.NewComposite(domain.NewComponentID("late"), domain.CompositeStandard)
		if err != nil {
			t.Fatal(err)
		}
		var opErr *domain.InvalidOperationError
		if err := m.AddComposite(other); !errors.As(err, &opErr) {
			t.Errorf("error = %v", err)
		}
		if err := m.SetVersion("2.0.0"); !errors.As(err, &opErr) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("pause and resume", func(t *testing.T) {
		if err := m.Pause(); err != nil {
			t.Fatalf("Pause failed: %v", err)
		}
		if got := comp.State(); got != domain.StateReady {
			t.Errorf("composite state after pause = %s", got)
		}
		if err := m.Resume(); err != nil {
			t.Fatalf("Resume failed: %v", err)
		}
		if got := m.State(); got != domain.MachineRunning {
			t.Errorf("state = %s", got)
		}
	})

	t.Run("stop", func(t *testing.T) {
		if err := m.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if got := m.State(); got != domain.MachineStopped {
			t.Errorf("state = %s", got)
		}
		if got := comp.State(); got != domain.StateReady {
			t.Errorf("composite state after stop = %s", got)
		}
	})

	t.Run("destroy terminates composites", func(t *testing.T) {
		if err := m.Destroy(); err != nil {
			t.Fatalf("Destroy failed: %v", err)
		}
		if got := m.State(); got != domain.MachineDestroyed {
			t.Errorf("state = %s", got)
		}
		if got := comp.State(); got != domain.StateTerminated {
			t.Errorf("composite state = %s", got)
		}
		if err := m.Destroy(); err == nil {
			t.Error("destroy of destroyed machine should fail")
		}
	})
}

func TestMachine_ErrorHandling(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Initialize(); err != nil {
		t.Fatal(err)
	}

	changed, err := m.SetErrorState("disk full")
	if err != nil || !changed {
		t.Fatalf("SetErrorState = %v, %v", changed, err)
	}
	if got := m.State(); got != domain.MachineError {
		t.Errorf("state = %s", got)
	}

	// Already in error: reports false, no error.
	changed, err = m.SetErrorState("again")
	if err != nil || changed {
		t.Errorf("second SetErrorState = %v, %v", changed, err)
	}

	if err := m.ResetFromError(); err != nil {
		t.Fatalf("ResetFromError failed: %v", err)
	}
	if got := m.State(); got != domain.MachineReady {
		t.Errorf("state = %s", got)
	}

	if err := m.ResetFromError(); err == nil {
		t.Error("reset outside Error should fail")
	}
}

func TestMachine_StateChangeEvents(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Initialize(); err != nil {
		t.Fatal(err)
	}

	events := m.ClearEvents()
	if len(events) != 1 {
		t.Fatalf("events = %d", len(events))
	}
	sc, ok := events[0].(domain.MachineStateChangedEvent)
	if !ok {
		t.Fatalf("event type = %T", events[0])
	}
	if !sc.MachineID().Equals(m.ID()) {
		t.Error("machine ID mismatch")
	}
	if sc.PreviousState() != domain.MachineCreated || sc.NewState() != domain.MachineReady {
		t.Errorf("event states = %s -> %s", sc.PreviousState(), sc.NewState())
	}
	if sc.TransitionReason() != "initialization completed" {
		t.Errorf("reason = %q", sc.TransitionReason())
	}

	if got := len(m.PendingEvents()); got != 0 {
		t.Errorf("events after drain = %d", got)
	}
}
