package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/ports"
)

// ComponentRepository keeps components and composites in process memory.
// Entries are stored as snapshots and rehydrated on every read, so
// callers never share state with the store or with each other.
type ComponentRepository struct {
	mu         sync.RWMutex
	components map[string]domain.ComponentSnapshot
	composites map[string]domain.CompositeSnapshot
}

// NewComponentRepository returns an empty in-memory component repository.
func NewComponentRepository() *ComponentRepository {
	return &ComponentRepository{
		components: make(map[string]domain.ComponentSnapshot),
		composites: make(map[string]domain.CompositeSnapshot),
	}
}

var _ ports.ComponentRepository = (*ComponentRepository)(nil)

func (r *ComponentRepository) Save(ctx context.Context, c *domain.Component) error {
	if c == nil {
		return fmt.Errorf("save component: nil component")
	}
	snap := c.Snapshot()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[c.ID().String()] = snap
	return nil
}

func (r *ComponentRepository) SaveComposite(ctx context.Context, c *domain.Composite) error {
	if c == nil {
		return fmt.Errorf("save composite: nil composite")
	}
	snap := c.Snapshot()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.composites[c.ID().String()] = snap
	r.components[c.ID().String()] = snap.Component
	return nil
}

func (r *ComponentRepository) FindByID(ctx context.Context, id domain.ComponentID) (*domain.Component, error) {
	r.mu.RLock()
	snap, ok := r.components[id.String()]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("component %s: %w", id.ShortID(), domain.ErrComponentNotFound)
	}
	c, err := domain.RestoreComponent(snap)
	if err != nil {
		return nil, fmt.Errorf("restore component %s: %w", id.ShortID(), err)
	}
	return c, nil
}

func (r *ComponentRepository) FindCompositeByID(ctx context.Context, id domain.ComponentID) (*domain.Composite, error) {
	r.mu.RLock()
	snap, ok := r.composites[id.String()]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("composite %s: %w", id.ShortID(), domain.ErrComponentNotFound)
	}
	c, err := domain.RestoreComposite(snap)
	if err != nil {
		return nil, fmt.Errorf("restore composite %s: %w", id.ShortID(), err)
	}
	return c, nil
}

func (r *ComponentRepository) FindAll(ctx context.Context) ([]*domain.Component, error) {
	r.mu.RLock()
	snaps := make([]domain.ComponentSnapshot, 0, len(r.components))
	for _, snap := range r.components {
		snaps = append(snaps, snap)
	}
	r.mu.RUnlock()

	out := make([]*domain.Component, 0, len(snaps))
	for _, snap := range snaps {
		c, err := domain.RestoreComponent(snap)
		if err != nil {
			return nil, fmt.Errorf("restore component %s: %w", snap.Identity.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *ComponentRepository) FindChildren(ctx context.Context, parent domain.ComponentID) ([]*domain.Component, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []*domain.Component
	for _, c := range all {
		if pid, ok := c.ID().ParentID(); ok && pid == parent.Value() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *ComponentRepository) Delete(ctx context.Context, id domain.ComponentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[id.String()]; !ok {
		return fmt.Errorf("component %s: %w", id.ShortID(), domain.ErrComponentNotFound)
	}
	delete(r.components, id.String())
	delete(r.composites, id.String())
	return nil
}

// MachineRepository keeps machines in process memory, snapshot-stored
// like the component repository.
type MachineRepository struct {
	mu       sync.RWMutex
	machines map[string]domain.MachineSnapshot
}

// NewMachineRepository returns an empty in-memory machine repository.
func NewMachineRepository() *MachineRepository {
	return &MachineRepository{machines: make(map[string]domain.MachineSnapshot)}
}

var _ ports.MachineRepository = (*MachineRepository)(nil)

func (r *MachineRepository) Save(ctx context.Context, m *domain.Machine) error {
	if m == nil {
		return fmt.Errorf("save machine: nil machine")
	}
	snap := m.Snapshot()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machines[m.ID().String()] = snap
	return nil
}

func (r *MachineRepository) FindByID(ctx context.Context, id domain.ComponentID) (*domain.Machine, error) {
	r.mu.RLock()
	snap, ok := r.machines[id.String()]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("machine %s: %w", id.ShortID(), domain.ErrMachineNotFound)
	}
	m, err := domain.RestoreMachine(snap)
	if err != nil {
		return nil, fmt.Errorf("restore machine %s: %w", id.ShortID(), err)
	}
	return m, nil
}

func (r *MachineRepository) FindAll(ctx context.Context) ([]*domain.Machine, error) {
	r.mu.RLock()
	snaps := make([]domain.MachineSnapshot, 0, len(r.machines))
	for _, snap := range r.machines {
		snaps = append(snaps, snap)
	}
	r.mu.RUnlock()

	out := make([]*domain.Machine, 0, len(snaps))
	for _, snap := range snaps {
		m, err := domain.RestoreMachine(snap)
		if err != nil {
			return nil, fmt.Errorf("restore machine %s: %w", snap.Identity.ID, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MachineRepository) Delete(ctx context.Context, id domain.ComponentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.machines[id.String()]; !ok {
		return fmt.Errorf("machine %s: %w", id.ShortID(), domain.ErrMachineNotFound)
	}
	delete(r.machines, id.String())
	return nil
}
