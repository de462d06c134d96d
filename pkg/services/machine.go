package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/ports"
)

// MachineService orchestrates machine lifecycles. Every state operation
// loads the machine, applies the domain method, saves and publishes the
// raised events, including those cascaded into composites and their
// children.
type MachineService struct {
	machines   ports.MachineRepository
	components ports.ComponentRepository
	publisher  ports.EventPublisher
	locks      *lockTable
	locker     ports.DistributedLocker
	logger     *slog.Logger
}

// MachineOption configures the MachineService.
type MachineOption func(*MachineService)

// WithMachineLogger configures a logger for the service.
func WithMachineLogger(logger *slog.Logger) MachineOption {
	return func(s *MachineService) {
		s.logger = logger
	}
}

// WithMachineLocker enables distributed locking for machine operations.
func WithMachineLocker(locker ports.DistributedLocker) MachineOption {
	return func(s *MachineService) {
		s.locker = locker
	}
}

// NewMachineService creates the service. The component repository is
// used to resolve composites added to machines; the publisher may be
// nil.
func NewMachineService(machines ports.MachineRepository, components ports.ComponentRepository, publisher ports.EventPublisher, opts ...MachineOption) *MachineService {
	s := &MachineService{
		machines:   machines,
		components: components,
		publisher:  publisher,
		locks:      newLockTable(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateMachine creates a machine in the Created state and persists it.
func (s *MachineService) CreateMachine(ctx context.Context, machineType domain.MachineType, name, description, version string) (*domain.Machine, error) {
	m, err := domain.NewMachine(domain.NewComponentID("machine: "+name), machineType, name, description, version)
	if err != nil {
		return nil, err
	}
	if err := s.machines.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("persist machine: %w", err)
	}
	s.publish(ctx, m.ClearEvents())
	s.logger.Info("machine created",
		"machine_id", m.ID().ShortID(),
		"name", m.Name(),
		"type", m.Type(),
	)
	return m, nil
}

// GetMachine retrieves a machine by ID.
func (s *MachineService) GetMachine(ctx context.Context, id domain.ComponentID) (*domain.Machine, error) {
	return s.machines.FindByID(ctx, id)
}

// ListMachines returns every stored machine.
func (s *MachineService) ListMachines(ctx context.Context) ([]*domain.Machine, error) {
	return s.machines.FindAll(ctx)
}

// AddComposite resolves a stored composite and attaches it to the
// machine.
func (s *MachineService) AddComposite(ctx context.Context, machineID, compositeID domain.ComponentID) error {
	return s.mutate(ctx, machineID, func(m *domain.Machine) error {
		composite, err := s.components.FindCompositeByID(ctx, compositeID)
		if err != nil {
			return err
		}
		return m.AddComposite(composite)
	})
}

// RemoveComposite detaches a composite from the machine.
func (s *MachineService) RemoveComposite(ctx context.Context, machineID, compositeID domain.ComponentID) error {
	return s.mutate(ctx, machineID, func(m *domain.Machine) error {
		return m.RemoveComposite(compositeID)
	})
}

// Initialize moves a Created machine to Ready.
func (s *MachineService) Initialize(ctx context.Context, id domain.ComponentID) error {
	return s.mutate(ctx, id, (*domain.Machine).Initialize)
}

// Start runs the machine, activating its Ready composites.
func (s *MachineService) Start(ctx context.Context, id domain.ComponentID) error {
	return s.mutate(ctx, id, (*domain.Machine).Start)
}

// Stop halts a Running machine.
func (s *MachineService) Stop(ctx context.Context, id domain.ComponentID) error {
	return s.mutate(ctx, id, (*domain.Machine).Stop)
}

// Pause suspends a Running machine, deactivating its composites.
func (s *MachineService) Pause(ctx context.Context, id domain.ComponentID) error {
	return s.mutate(ctx, id, (*domain.Machine).Pause)
}

// Resume continues a Paused machine.
func (s *MachineService) Resume(ctx context.Context, id domain.ComponentID) error {
	return s.mutate(ctx, id, (*domain.Machine).Resume)
}

// SetErrorState forces the machine into Error, reporting whether the
// state actually changed.
func (s *MachineService) SetErrorState(ctx context.Context, id domain.ComponentID, reason string) (bool, error) {
	var changed bool
	err := s.mutate(ctx, id, func(m *domain.Machine) error {
		var err error
		changed, err = m.SetErrorState(reason)
		return err
	})
	return changed, err
}

// ResetFromError recovers a machine from Error back to Ready.
func (s *MachineService) ResetFromError(ctx context.Context, id domain.ComponentID) error {
	return s.mutate(ctx, id, (*domain.Machine).ResetFromError)
}

// Destroy terminates the machine's composites and marks it Destroyed.
func (s *MachineService) Destroy(ctx context.Context, id domain.ComponentID) error {
	return s.mutate(ctx, id, (*domain.Machine).Destroy)
}

// SetVersion updates the machine version. Only allowed in modifiable
// states.
func (s *MachineService) SetVersion(ctx context.Context, id domain.ComponentID, version string) error {
	return s.mutate(ctx, id, func(m *domain.Machine) error {
		return m.SetVersion(version)
	})
}

// DeleteMachine destroys a machine if needed and removes it from the
// repository.
func (s *MachineService) DeleteMachine(ctx context.Context, id domain.ComponentID) error {
	return s.locks.withLock(ctx, id.String(), s.locker, s.logger, func(ctx context.Context) error {
		m, err := s.machines.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if m.State() != domain.MachineDestroyed {
			if err := m.Destroy(); err != nil {
				return err
			}
			s.publish(ctx, drainMachineEvents(m))
		}
		return s.machines.Delete(ctx, id)
	})
}

func (s *MachineService) mutate(ctx context.Context, id domain.ComponentID, fn func(*domain.Machine) error) error {
	return s.locks.withLock(ctx, id.String(), s.locker, s.logger, func(ctx context.Context) error {
		m, err := s.machines.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		if err := s.machines.Save(ctx, m); err != nil {
			return fmt.Errorf("persist machine: %w", err)
		}
		s.publish(ctx, drainMachineEvents(m))
		return nil
	})
}

// drainMachineEvents collects the machine's own events plus those the
// operation cascaded into its composites and their children.
func drainMachineEvents(m *domain.Machine) []domain.Event {
	events := m.ClearEvents()
	for _, composite := range m.Composites() {
		events = append(events, composite.ClearEvents()...)
		for _, child := range composite.Components() {
			events = append(events, child.ClearEvents()...)
		}
	}
	return events
}

func (s *MachineService) publish(ctx context.Context, events []domain.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", "count", len(events), "err", err)
	}
}
