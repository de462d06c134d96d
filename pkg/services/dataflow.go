package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/ports"
)

// DataFlowService mediates channel pub/sub between components. Only
// components in an operational state may publish or subscribe.
type DataFlowService struct {
	repo      ports.ComponentRepository
	flow      ports.DataFlowPort
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// DataFlowOption configures the DataFlowService.
type DataFlowOption func(*DataFlowService)

// WithDataFlowLogger configures a logger for the service.
func WithDataFlowLogger(logger *slog.Logger) DataFlowOption {
	return func(s *DataFlowService) {
		s.logger = logger
	}
}

// NewDataFlowService creates the service. The publisher may be nil.
func NewDataFlowService(repo ports.ComponentRepository, flow ports.DataFlowPort, publisher ports.EventPublisher, opts ...DataFlowOption) *DataFlowService {
	s := &DataFlowService{
		repo:      repo,
		flow:      flow,
		publisher: publisher,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish delivers data from a component onto a channel. The publishing
// component must exist and be in an operational state.
func (s *DataFlowService) Publish(ctx context.Context, componentID domain.ComponentID, channel string, data map[string]any) error {
	c, err := s.repo.FindByID(ctx, componentID)
	if err != nil {
		return err
	}
	if !c.State().IsOperational() {
		return &domain.InvalidOperationError{
			ID:        componentID,
			Operation: "publish",
			State:     string(c.State()),
		}
	}

	event := domain.NewComponentDataEvent(componentID, channel, data)
	if err := s.flow.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish to channel %q: %w", channel, err)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish data event", "channel", channel, "err", err)
		}
	}
	return nil
}

// Subscribe registers a component's handler on a channel. The component
// must exist and not be terminated.
func (s *DataFlowService) Subscribe(ctx context.Context, componentID domain.ComponentID, channel string, handler ports.DataHandler) error {
	c, err := s.repo.FindByID(ctx, componentID)
	if err != nil {
		return err
	}
	if c.State().IsTerminal() || c.State() == domain.StateTerminating {
		return &domain.InvalidOperationError{
			ID:        componentID,
			Operation: "subscribe",
			State:     string(c.State()),
		}
	}
	return s.flow.Subscribe(componentID, channel, handler)
}

// Unsubscribe removes a component's subscription from a channel.
func (s *DataFlowService) Unsubscribe(componentID domain.ComponentID, channel string) {
	s.flow.Unsubscribe(componentID, channel)
}

// Channels returns every channel with at least one subscriber.
func (s *DataFlowService) Channels() []string {
	return s.flow.Channels()
}

// SubscriptionsOf returns the channels a component subscribes to.
func (s *DataFlowService) SubscriptionsOf(componentID domain.ComponentID) []string {
	return s.flow.SubscriptionsOf(componentID)
}
