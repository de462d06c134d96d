package ports

import (
	"context"

	"github.com/s8r-framework/s8r/pkg/domain"
)

// ComponentRepository persists components and composites.
// Implementations return domain.ErrComponentNotFound for unknown IDs.
type ComponentRepository interface {
	// Save persists a component, overwriting any previous version.
	Save(ctx context.Context, c *domain.Component) error

	// SaveComposite persists a composite together with its wiring.
	SaveComposite(ctx context.Context, c *domain.Composite) error

	// FindByID retrieves a component.
	FindByID(ctx context.Context, id domain.ComponentID) (*domain.Component, error)

	// FindCompositeByID retrieves a composite.
	FindCompositeByID(ctx context.Context, id domain.ComponentID) (*domain.Composite, error)

	// FindAll returns every stored component, composites included.
	FindAll(ctx context.Context) ([]*domain.Component, error)

	// FindChildren returns components whose lineage contains the given
	// parent.
	FindChildren(ctx context.Context, parentID domain.ComponentID) ([]*domain.Component, error)

	// Delete removes a component.
	Delete(ctx context.Context, id domain.ComponentID) error
}

// MachineRepository persists machines.
// Implementations return domain.ErrMachineNotFound for unknown IDs.
type MachineRepository interface {
	Save(ctx context.Context, m *domain.Machine) error
	FindByID(ctx context.Context, id domain.ComponentID) (*domain.Machine, error)
	FindAll(ctx context.Context) ([]*domain.Machine, error)
	Delete(ctx context.Context, id domain.ComponentID) error
}
