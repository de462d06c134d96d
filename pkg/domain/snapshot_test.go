package domain_test

import (
	"testing"

	"github.com/s8r-framework/s8r/pkg/domain"
)

func TestComponentSnapshotRoundTrip(t *testing.T) {
	c, err := domain.NewComponentOfType(domain.NewComponentID("snapshot source"), domain.TypeObserver)
	if err != nil {
		t.Fatalf("NewComponentOfType: %v", err)
	}
	if err := c.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	c.SetProperty("threshold", 0.75)

	restored, err := domain.RestoreComponent(c.Snapshot())
	if err != nil {
		t.Fatalf("RestoreComponent: %v", err)
	}
	if !restored.ID().Equals(c.ID()) {
		t.Errorf("restored ID = %s, want %s", restored.ID(), c.ID())
	}
	if restored.State() != domain.StateActive {
		t.Errorf("restored state = %s, want %s", restored.State(), domain.StateActive)
	}
	if restored.Type() != domain.TypeObserver {
		t.Errorf("restored type = %s, want %s", restored.Type(), domain.TypeObserver)
	}
	if v, ok := restored.Property("threshold"); !ok || v != 0.75 {
		t.Errorf("restored property = %v (%v), want 0.75", v, ok)
	}
	if got := len(restored.PendingEvents()); got != 0 {
		t.Errorf("restore raised %d events, want 0", got)
	}
	if len(restored.ActivityLog()) != len(c.ActivityLog()) {
		t.Errorf("activity log length = %d, want %d", len(restored.ActivityLog()), len(c.ActivityLog()))
	}
}

func TestRestoreComponentRejectsUnknownState(t *testing.T) {
	c, err := domain.NewComponent(domain.NewComponentID("bad state"))
	if err != nil {
		t.Fatalf("NewComponent: %v", err)
	}
	snap := c.Snapshot()
	snap.State = "hibernating"
	if _, err := domain.RestoreComponent(snap); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestMachineSnapshotRoundTrip(t *testing.T) {
	m, err := domain.NewMachine(domain.NewComponentID("snapshot machine"),
		domain.MachineTypeWorkflow, "orders", "order workflow", "3.0.0")
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	composite, err := domain.NewComposite(domain.NewComponentID("snapshot composite"), domain.CompositeObserver)
	if err != nil {
		t.Fatalf("NewComposite: %v", err)
	}
	a, _ := domain.NewComponent(domain.NewComponentID("first child"))
	b, _ := domain.NewComponent(domain.NewComponentID("second child"))
	if err := composite.AddComponent(a); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := composite.AddComponent(b); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if _, err := composite.Connect(a.ID(), b.ID(), domain.ConnectionMonitoring, "a watches b"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := m.AddComposite(composite); err != nil {
		t.Fatalf("AddComposite: %v", err)
	}
	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	restored, err := domain.RestoreMachine(m.Snapshot())
	if err != nil {
		t.Fatalf("RestoreMachine: %v", err)
	}
	if restored.Name() != "orders" || restored.Version() != "3.0.0" {
		t.Errorf("restored machine = %s/%s, want orders/3.0.0", restored.Name(), restored.Version())
	}
	if restored.State() != domain.MachineReady {
		t.Errorf("restored state = %s, want %s", restored.State(), domain.MachineReady)
	}
	rc, ok := restored.GetComposite(composite.ID())
	if !ok {
		t.Fatal("restored machine is missing its composite")
	}
	if rc.CompositeType() != domain.CompositeObserver {
		t.Errorf("restored composite type = %s", rc.CompositeType())
	}
	if len(rc.Components()) != 2 {
		t.Errorf("restored composite has %d children, want 2", len(rc.Components()))
	}
	conns := rc.Connections()
	if len(conns) != 1 {
		t.Fatalf("restored composite has %d connections, want 1", len(conns))
	}
	if conns[0].Type() != domain.ConnectionMonitoring || !conns[0].Active() {
		t.Errorf("restored connection = %s active=%v", conns[0].Type(), conns[0].Active())
	}
	if got := len(restored.PendingEvents()); got != 0 {
		t.Errorf("restore raised %d events, want 0", got)
	}
}

func TestRestoreMachineRejectsEmptyName(t *testing.T) {
	m, err := domain.NewMachine(domain.NewComponentID("unnamed"), domain.MachineTypeStandard, "temp", "", "")
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	snap := m.Snapshot()
	snap.Name = ""
	if _, err := domain.RestoreMachine(snap); err == nil {
		t.Fatal("expected error for empty name")
	}
}
