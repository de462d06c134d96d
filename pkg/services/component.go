package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/ports"
)

// ComponentService orchestrates component and composite lifecycles over a
// repository, publishing the domain events each operation raises.
type ComponentService struct {
	repo      ports.ComponentRepository
	publisher ports.EventPublisher
	flow      ports.DataFlowPort
	locks     *lockTable
	locker    ports.DistributedLocker
	logger    *slog.Logger
}

// ComponentOption configures the ComponentService.
type ComponentOption func(*ComponentService)

// WithComponentLogger configures a logger for the service.
func WithComponentLogger(logger *slog.Logger) ComponentOption {
	return func(s *ComponentService) {
		s.logger = logger
	}
}

// WithComponentLocker enables distributed locking for component
// operations.
func WithComponentLocker(locker ports.DistributedLocker) ComponentOption {
	return func(s *ComponentService) {
		s.locker = locker
	}
}

// WithComponentDataFlow wires the data-flow hub so terminated components
// are unsubscribed from their channels.
func WithComponentDataFlow(flow ports.DataFlowPort) ComponentOption {
	return func(s *ComponentService) {
		s.flow = flow
	}
}

// NewComponentService creates the service. The publisher may be nil, in
// which case events are dropped after persistence.
func NewComponentService(repo ports.ComponentRepository, publisher ports.EventPublisher, opts ...ComponentOption) *ComponentService {
	s := &ComponentService{
		repo:      repo,
		publisher: publisher,
		locks:     newLockTable(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateComponent creates a root component and persists it at Ready.
func (s *ComponentService) CreateComponent(ctx context.Context, reason string) (*domain.Component, error) {
	return s.createComponent(ctx, domain.NewComponentID(reason), domain.TypeStandard)
}

// CreateComponentOfType creates a root component with an explicit type
// code.
func (s *ComponentService) CreateComponentOfType(ctx context.Context, reason, componentType string) (*domain.Component, error) {
	return s.createComponent(ctx, domain.NewComponentID(reason), componentType)
}

// CreateChildComponent creates a component descending from an existing
// parent. The parent records the birth in its lineage.
func (s *ComponentService) CreateChildComponent(ctx context.Context, parentID domain.ComponentID, reason string) (*domain.Component, error) {
	parent, err := s.repo.FindByID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	child, err := s.createComponent(ctx, parent.ID().ChildID(reason), domain.TypeStandard)
	if err != nil {
		return nil, err
	}

	err = s.locks.withLock(ctx, parent.ID().String(), s.locker, s.logger, func(ctx context.Context) error {
		parent.AddToLineage(fmt.Sprintf("spawned child %s: %s", child.ID().ShortID(), reason))
		return s.repo.Save(ctx, parent)
	})
	if err != nil {
		return nil, fmt.Errorf("record child in parent lineage: %w", err)
	}
	return child, nil
}

func (s *ComponentService) createComponent(ctx context.Context, id domain.ComponentID, componentType string) (*domain.Component, error) {
	c, err := domain.NewComponentOfType(id, componentType)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("persist component: %w", err)
	}
	s.publish(ctx, c.ClearEvents())
	s.logger.Info("component created",
		"component_id", c.ID().ShortID(),
		"type", c.Type(),
		"address", c.ID().Address(),
	)
	return c, nil
}

// CreateComposite creates a composite of the given type and persists it.
func (s *ComponentService) CreateComposite(ctx context.Context, reason string, compositeType domain.CompositeType) (*domain.Composite, error) {
	c, err := domain.NewComposite(domain.NewComponentID(reason), compositeType)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveComposite(ctx, c); err != nil {
		return nil, fmt.Errorf("persist composite: %w", err)
	}
	s.publish(ctx, c.ClearEvents())
	s.logger.Info("composite created",
		"component_id", c.ID().ShortID(),
		"composite_type", c.CompositeType(),
	)
	return c, nil
}

// GetComponent retrieves a component by ID.
func (s *ComponentService) GetComponent(ctx context.Context, id domain.ComponentID) (*domain.Component, error) {
	return s.repo.FindByID(ctx, id)
}

// GetComposite retrieves a composite by ID.
func (s *ComponentService) GetComposite(ctx context.Context, id domain.ComponentID) (*domain.Composite, error) {
	return s.repo.FindCompositeByID(ctx, id)
}

// ListComponents returns every stored component.
func (s *ComponentService) ListComponents(ctx context.Context) ([]*domain.Component, error) {
	return s.repo.FindAll(ctx)
}

// ListChildren returns the direct children of a component.
func (s *ComponentService) ListChildren(ctx context.Context, parentID domain.ComponentID) ([]*domain.Component, error) {
	return s.repo.FindChildren(ctx, parentID)
}

// TransitionComponent moves a component to the given lifecycle state.
func (s *ComponentService) TransitionComponent(ctx context.Context, id domain.ComponentID, next domain.State, reason string) error {
	return s.mutateComponent(ctx, id, func(c *domain.Component) error {
		return c.TransitionTo(next, reason)
	})
}

// ActivateComponent moves a Ready component to Active.
func (s *ComponentService) ActivateComponent(ctx context.Context, id domain.ComponentID) error {
	return s.mutateComponent(ctx, id, (*domain.Component).Activate)
}

// DeactivateComponent moves an Active component back to Ready.
func (s *ComponentService) DeactivateComponent(ctx context.Context, id domain.ComponentID) error {
	return s.mutateComponent(ctx, id, (*domain.Component).Deactivate)
}

// TerminateComponent terminates a component and removes its data-flow
// subscriptions.
func (s *ComponentService) TerminateComponent(ctx context.Context, id domain.ComponentID) error {
	err := s.mutateComponent(ctx, id, (*domain.Component).Terminate)
	if err != nil {
		return err
	}
	if s.flow != nil {
		s.flow.UnsubscribeAll(id)
	}
	return nil
}

// SetComponentProperty sets a runtime property and persists the
// component.
func (s *ComponentService) SetComponentProperty(ctx context.Context, id domain.ComponentID, key string, value any) error {
	return s.mutateComponent(ctx, id, func(c *domain.Component) error {
		c.SetProperty(key, value)
		return nil
	})
}

// DeleteComponent removes a component from the repository. Live
// components are terminated first.
func (s *ComponentService) DeleteComponent(ctx context.Context, id domain.ComponentID) error {
	return s.locks.withLock(ctx, id.String(), s.locker, s.logger, func(ctx context.Context) error {
		c, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !c.State().IsTerminal() {
			if err := c.Terminate(); err != nil {
				return err
			}
			s.publish(ctx, c.ClearEvents())
		}
		if s.flow != nil {
			s.flow.UnsubscribeAll(id)
		}
		return s.repo.Delete(ctx, id)
	})
}

// AddToComposite places an existing component inside a composite.
func (s *ComponentService) AddToComposite(ctx context.Context, compositeID, childID domain.ComponentID) error {
	return s.mutateComposite(ctx, compositeID, func(composite *domain.Composite) error {
		child, err := s.repo.FindByID(ctx, childID)
		if err != nil {
			return err
		}
		return composite.AddComponent(child)
	})
}

// RemoveFromComposite removes a component from a composite without
// terminating it.
func (s *ComponentService) RemoveFromComposite(ctx context.Context, compositeID, childID domain.ComponentID) error {
	return s.mutateComposite(ctx, compositeID, func(composite *domain.Composite) error {
		return composite.RemoveComponent(childID)
	})
}

// ConnectComponents wires two members of a composite and returns the
// connection.
func (s *ComponentService) ConnectComponents(ctx context.Context, compositeID, sourceID, targetID domain.ComponentID, ct domain.ConnectionType, description string) (*domain.Connection, error) {
	var conn *domain.Connection
	err := s.mutateComposite(ctx, compositeID, func(composite *domain.Composite) error {
		var err error
		conn, err = composite.Connect(sourceID, targetID, ct, description)
		return err
	})
	return conn, err
}

// DisconnectComponents removes a connection from a composite.
func (s *ComponentService) DisconnectComponents(ctx context.Context, compositeID domain.ComponentID, connectionID string) error {
	return s.mutateComposite(ctx, compositeID, func(composite *domain.Composite) error {
		return composite.Disconnect(connectionID)
	})
}

// ActivateComposite activates a composite and its children.
func (s *ComponentService) ActivateComposite(ctx context.Context, id domain.ComponentID) error {
	return s.mutateComposite(ctx, id, (*domain.Composite).Activate)
}

// DeactivateComposite deactivates a composite and its children.
func (s *ComponentService) DeactivateComposite(ctx context.Context, id domain.ComponentID) error {
	return s.mutateComposite(ctx, id, (*domain.Composite).Deactivate)
}

// TerminateComposite terminates a composite and its children.
func (s *ComponentService) TerminateComposite(ctx context.Context, id domain.ComponentID) error {
	return s.mutateComposite(ctx, id, (*domain.Composite).Terminate)
}

func (s *ComponentService) mutateComponent(ctx context.Context, id domain.ComponentID, fn func(*domain.Component) error) error {
	return s.locks.withLock(ctx, id.String(), s.locker, s.logger, func(ctx context.Context) error {
		c, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, c); err != nil {
			return fmt.Errorf("persist component: %w", err)
		}
		s.publish(ctx, c.ClearEvents())
		return nil
	})
}

func (s *ComponentService) mutateComposite(ctx context.Context, id domain.ComponentID, fn func(*domain.Composite) error) error {
	return s.locks.withLock(ctx, id.String(), s.locker, s.logger, func(ctx context.Context) error {
		composite, err := s.repo.FindCompositeByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(composite); err != nil {
			return err
		}
		if err := s.repo.SaveComposite(ctx, composite); err != nil {
			return fmt.Errorf("persist composite: %w", err)
		}
		events := composite.ClearEvents()
		for _, child := range composite.Components() {
			events = append(events, child.ClearEvents()...)
		}
		s.publish(ctx, events)
		return nil
	})
}

func (s *ComponentService) publish(ctx context.Context, events []domain.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", "count", len(events), "err", err)
	}
}
