package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ComponentID is the immutable identity of a component. Besides the UUID it
// carries the creation reason, the moment of conception and the lineage of
// parent IDs that produced it, which yields a hierarchical address usable to
// locate the component in the component tree.
type ComponentID struct {
	value     uuid.UUID
	reason    string
	createdAt time.Time
	lineage   []string
}

// NewComponentID creates a root ("Adam") identity with a random UUID.
func NewComponentID(reason string) ComponentID {
	return ComponentID{
		value:     uuid.New(),
		reason:    reason,
		createdAt: time.Now().UTC(),
	}
}

// NewComponentIDWithLineage creates an identity descending from the given
// chain of parent UUIDs. The last lineage entry is the direct parent.
func NewComponentIDWithLineage(reason string, lineage []string) ComponentID {
	id := NewComponentID(reason)
	id.lineage = append([]string(nil), lineage...)
	return id
}

// ParseComponentID builds an identity from an existing UUID string.
func ParseComponentID(s, reason string) (ComponentID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return ComponentID{}, fmt.Errorf("invalid UUID format %q: %w", s, err)
	}
	return ComponentID{value: v, reason: reason, createdAt: time.Now().UTC()}, nil
}

// ChildID derives an identity for a child of this component.
func (id ComponentID) ChildID(reason string) ComponentID {
	lineage := append(append([]string(nil), id.lineage...), id.value.String())
	return NewComponentIDWithLineage(reason, lineage)
}

// Value returns the underlying UUID.
func (id ComponentID) Value() uuid.UUID { return id.value }

// String returns the full UUID string.
func (id ComponentID) String() string { return id.value.String() }

// ShortID returns the first eight characters of the UUID, used in addresses
// and log lines.
func (id ComponentID) ShortID() string { return id.value.String()[:8] }

// Reason returns the reason recorded at creation.
func (id ComponentID) Reason() string { return id.reason }

// CreatedAt returns the conception time.
func (id ComponentID) CreatedAt() time.Time { return id.createdAt }

// Lineage returns a copy of the parent UUID chain, oldest first.
func (id ComponentID) Lineage() []string {
	return append([]string(nil), id.lineage...)
}

// IsAdam reports whether this identity has no parent.
func (id ComponentID) IsAdam() bool { return len(id.lineage) == 0 }

// ParentID returns the UUID of the direct parent and false for Adam
// components.
func (id ComponentID) ParentID() (uuid.UUID, bool) {
	if len(id.lineage) == 0 {
		return uuid.UUID{}, false
	}
	parent, err := uuid.Parse(id.lineage[len(id.lineage)-1])
	if err != nil {
		return uuid.UUID{}, false
	}
	return parent, true
}

// Address returns the hierarchical address of the component. Adam components
// are addressed as CO<short>; descendants append their short ID to the
// parent chain.
func (id ComponentID) Address() string {
	var b strings.Builder
	b.WriteString("CO<")
	for _, ancestor := range id.lineage {
		if len(ancestor) >= 8 {
			b.WriteString(ancestor[:8])
			b.WriteString(".")
		}
	}
	b.WriteString(id.ShortID())
	b.WriteString(">")
	return b.String()
}

// Equals compares identities by UUID only.
func (id ComponentID) Equals(other ComponentID) bool {
	return id.value == other.value
}
