package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/ports"
)

// Factory is the entry point for migrating tube-based code: it creates
// legacy tubes, wraps them as components and persists the result.
type Factory struct {
	adapter          *TubeAdapter
	repo             ports.ComponentRepository
	publisher        ports.EventPublisher
	logger           *slog.Logger
	terminationDelay time.Duration
}

// FactoryOption configures the Factory.
type FactoryOption func(*Factory)

// WithRepository persists wrapped components into the repository.
func WithRepository(repo ports.ComponentRepository) FactoryOption {
	return func(f *Factory) {
		f.repo = repo
	}
}

// WithPublisher publishes the events wrapped components raise.
func WithPublisher(publisher ports.EventPublisher) FactoryOption {
	return func(f *Factory) {
		f.publisher = publisher
	}
}

// WithLogger configures a logger for the factory and its adapter.
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithTerminationDelay overrides the self-termination delay of tubes the
// factory creates. Non-positive values keep the tube default.
func WithTerminationDelay(delay time.Duration) FactoryOption {
	return func(f *Factory) {
		f.terminationDelay = delay
	}
}

// NewFactory creates a migration factory with a fresh issue log.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	f.adapter = NewTubeAdapter(NewIssueLog("tube-migration", f.logger), f.logger)
	return f
}

// Adapter returns the underlying tube adapter.
func (f *Factory) Adapter() *TubeAdapter { return f.adapter }

// Issues returns the accumulated migration issues.
func (f *Factory) Issues() *IssueLog { return f.adapter.Issues() }

// CreateTubeComponent creates a root tube and wraps it as a component.
func (f *Factory) CreateTubeComponent(ctx context.Context, reason string, environment map[string]string) (*domain.Component, *Tube, error) {
	tube, err := NewTube(reason, environment)
	if err != nil {
		return nil, nil, fmt.Errorf("create tube: %w", err)
	}
	if err := f.applyTerminationDelay(tube); err != nil {
		return nil, nil, err
	}
	c, err := f.wrap(ctx, tube)
	if err != nil {
		return nil, nil, err
	}
	return c, tube, nil
}

// CreateChildTubeComponent creates a child tube under a parent and
// wraps it as a component.
func (f *Factory) CreateChildTubeComponent(ctx context.Context, reason string, environment map[string]string, parent *Tube) (*domain.Component, *Tube, error) {
	tube, err := NewChildTube(reason, environment, parent)
	if err != nil {
		return nil, nil, fmt.Errorf("create child tube: %w", err)
	}
	if err := f.applyTerminationDelay(tube); err != nil {
		return nil, nil, err
	}
	c, err := f.wrap(ctx, tube)
	if err != nil {
		return nil, nil, err
	}
	return c, tube, nil
}

func (f *Factory) applyTerminationDelay(tube *Tube) error {
	if f.terminationDelay <= 0 {
		return nil
	}
	if err := tube.SetTerminationDelay(f.terminationDelay); err != nil {
		return fmt.Errorf("set termination delay: %w", err)
	}
	return nil
}

// WrapExistingTube wraps a pre-existing tube as a component.
func (f *Factory) WrapExistingTube(ctx context.Context, tube *Tube) (*domain.Component, error) {
	return f.wrap(ctx, tube)
}

func (f *Factory) wrap(ctx context.Context, tube *Tube) (*domain.Component, error) {
	c, err := f.adapter.WrapTube(tube)
	if err != nil {
		return nil, err
	}
	if f.repo != nil {
		if err := f.repo.Save(ctx, c); err != nil {
			return nil, fmt.Errorf("persist wrapped tube: %w", err)
		}
	}
	if f.publisher != nil {
		events := c.ClearEvents()
		if len(events) > 0 {
			if err := f.publisher.Publish(ctx, events...); err != nil {
				f.logger.Warn("failed to publish wrap events", "err", err)
			}
		}
	}
	return c, nil
}
