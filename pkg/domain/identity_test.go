package domain_test

import (
	"strings"
	"testing"

	"github.com/s8r-framework/s8r/pkg/domain"
)

func TestComponentID_Adam(t *testing.T) {
	id := domain.NewComponentID("root creation")

	if !id.IsAdam() {
		t.Error("identity without lineage should be Adam")
	}
	if id.Reason() != "root creation" {
		t.Errorf("reason = %q", id.Reason())
	}
	if _, ok := id.ParentID(); ok {
		t.Error("Adam identity should have no parent")
	}
	if got := id.Address(); got != "CO<"+id.ShortID()+">" {
		t.Errorf("address = %q", got)
	}
	if len(id.ShortID()) != 8 {
		t.Errorf("short ID length = %d", len(id.ShortID()))
	}
}

func TestComponentID_Child(t *testing.T) {
	parent := domain.NewComponentID("parent")
	child := parent.ChildID("child creation")

	if child.IsAdam() {
		t.Error("child should not be Adam")
	}
	gotParent, ok := child.ParentID()
	if !ok {
		t.Fatal("child should have a parent")
	}
	if gotParent != parent.Value() {
		t.Errorf("parent UUID = %s, want %s", gotParent, parent.Value())
	}

	wantPrefix := "CO<" + parent.ShortID() + "."
	if !strings.HasPrefix(child.Address(), wantPrefix) {
		t.Errorf("child address %q should start with %q", child.Address(), wantPrefix)
	}

	grandchild := child.ChildID("grandchild")
	if got := len(grandchild.Lineage()); got != 2 {
		t.Errorf("grandchild lineage length = %d, want 2", got)
	}
}

func TestParseComponentID(t *testing.T) {
	t.Run("valid UUID", func(t *testing.T) {
		id, err := domain.ParseComponentID("f47ac10b-58cc-4372-a567-0e02b2c3d479", "restored")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id.ShortID() != "f47ac10b" {
			t.Errorf("short ID = %q", id.ShortID())
		}
	})

	t.Run("invalid UUID", func(t *testing.T) {
		_, err := domain.ParseComponentID("not-a-uuid", "restored")
		if err == nil {
			t.Fatal("expected error for malformed UUID")
		}
		if !strings.Contains(err.Error(), "invalid UUID format") {
			t.Errorf("error = %v", err)
		}
	})
}

func TestComponentID_Equals(t *testing.T) {
	a := domain.NewComponentID("a")
	b := domain.NewComponentID("b")

	if a.Equals(b) {
		t.Error("distinct identities should not be equal")
	}

	restored, err := domain.ParseComponentID(a.String(), "different reason")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Equals(restored) {
		t.Error("equality should be by UUID only")
	}
}
