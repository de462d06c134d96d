// Package flow runs data through the components of a composite, applying
// per-component validators and transformers along the data-flow
// connections, with optional circuit breaking per stage or per pipeline.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/s8r-framework/s8r/internal/logging"
	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/observability"
)

// Transformer rewrites the payload at a pipeline stage.
type Transformer func(data map[string]any) (map[string]any, error)

// Validator accepts or rejects the payload at a pipeline stage.
type Validator func(data map[string]any) error

// ErrValidationFailed is returned when a stage validator rejects the
// payload.
var ErrValidationFailed = errors.New("data validation failed")

// ErrNotMember is returned when the entry component does not belong to
// the composite.
var ErrNotMember = errors.New("component is not a member of the composite")

// Pipeline processes data through a composite. Stages are the composite's
// components; the route follows active data-flow connections from the
// entry component. When a component has several outgoing data-flow edges
// the branches are tried in connection order and the first branch that
// reaches a terminal stage wins; a failed branch falls back to the next
// sibling.
type Pipeline struct {
	composite *domain.Composite

	mu           sync.Mutex
	transformers map[string][]Transformer
	validators   map[string][]Validator
	breakers     map[string]*CircuitBreaker

	breaker *CircuitBreaker
	logger  *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithBreaker protects the whole pipeline run with the given breaker.
func WithBreaker(cb *CircuitBreaker) PipelineOption {
	return func(p *Pipeline) {
		p.breaker = cb
	}
}

// WithLogger configures a logger for the pipeline.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a pipeline over the composite's wiring.
func NewPipeline(composite *domain.Composite, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		composite:    composite,
		transformers: make(map[string][]Transformer),
		validators:   make(map[string][]Validator),
		breakers:     make(map[string]*CircuitBreaker),
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddTransformer appends a transformer to a component's stage.
func (p *Pipeline) AddTransformer(id domain.ComponentID, t Transformer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := id.String()
	p.transformers[key] = append(p.transformers[key], t)
}

// AddValidator appends a validator to a component's stage.
func (p *Pipeline) AddValidator(id domain.ComponentID, v Validator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := id.String()
	p.validators[key] = append(p.validators[key], v)
}

// EnableCircuitBreaker guards a single stage with its own breaker. While
// the breaker is open the stage fails fast with ErrCircuitOpen, so an
// upstream component with other outgoing branches routes around it.
func (p *Pipeline) EnableCircuitBreaker(id domain.ComponentID, threshold int, timeout time.Duration) *CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()
	cb := NewCircuitBreaker("stage-"+id.ShortID(), threshold, timeout)
	p.breakers[id.String()] = cb
	return cb
}

// Process runs data through the pipeline starting at the entry
// component and returns the payload produced by the terminal stage.
func (p *Pipeline) Process(ctx context.Context, entryID domain.ComponentID, data map[string]any) (map[string]any, error) {
	run := func() (map[string]any, error) {
		if !p.composite.ContainsComponent(entryID) {
			return nil, fmt.Errorf("entry %s: %w", entryID.ShortID(), ErrNotMember)
		}
		visited := make(map[string]bool)
		return p.processFrom(ctx, entryID, data, visited)
	}

	var result map[string]any
	var err error
	if p.breaker != nil {
		var rejection error
		err = p.breaker.Call(func() error {
			var innerErr error
			result, innerErr = run()
			// Validation rejections are expected outcomes, not stage
			// failures; they must not trip the breaker.
			if errors.Is(innerErr, ErrValidationFailed) {
				rejection = innerErr
				result = nil
				return nil
			}
			return innerErr
		})
		if err == nil && rejection != nil {
			err = rejection
		}
	} else {
		result, err = run()
	}

	switch {
	case errors.Is(err, ErrValidationFailed):
		observability.RecordPipelineOutcome("invalid")
	case err != nil:
		observability.RecordPipelineOutcome("error")
	default:
		observability.RecordPipelineOutcome("ok")
	}
	return result, err
}

// processFrom runs the stage at id, then tries each outgoing branch in
// connection order until one reaches a terminal stage. Branches carry
// their own visited set so a failed branch does not poison its siblings.
func (p *Pipeline) processFrom(ctx context.Context, id domain.ComponentID, data map[string]any, visited map[string]bool) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := id.String()
	if visited[key] {
		return nil, fmt.Errorf("cycle detected at component %s", id.ShortID())
	}
	visited[key] = true

	out, err := p.runStage(id, data)
	if err != nil {
		return nil, err
	}

	branches := p.downstream(id)
	if len(branches) == 0 {
		// Terminal stage.
		return out, nil
	}

	var errs []error
	for _, next := range branches {
		result, branchErr := p.processFrom(ctx, next, out, maps.Clone(visited))
		if branchErr == nil {
			return result, nil
		}
		p.logger.Debug("branch failed, trying next",
			"component_id", id.ShortID(),
			"target_id", next.ShortID(),
			"err", branchErr,
		)
		errs = append(errs, branchErr)
	}
	return nil, errors.Join(errs...)
}

// runStage executes a stage under its breaker when one is enabled.
func (p *Pipeline) runStage(id domain.ComponentID, data map[string]any) (map[string]any, error) {
	p.mu.Lock()
	cb := p.breakers[id.String()]
	p.mu.Unlock()
	if cb == nil {
		return p.processStage(id, data)
	}

	var out map[string]any
	var rejection error
	err := cb.Call(func() error {
		var stageErr error
		out, stageErr = p.processStage(id, data)
		if errors.Is(stageErr, ErrValidationFailed) {
			rejection = stageErr
			out = nil
			return nil
		}
		return stageErr
	})
	if errors.Is(err, ErrCircuitOpen) {
		return nil, fmt.Errorf("stage %s: %w", id.ShortID(), err)
	}
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return nil, rejection
	}
	return out, nil
}

// processStage runs a single component's validators then transformers.
func (p *Pipeline) processStage(id domain.ComponentID, data map[string]any) (map[string]any, error) {
	component, ok := p.composite.GetComponent(id)
	if !ok {
		return nil, fmt.Errorf("stage %s: %w", id.ShortID(), domain.ErrComponentNotFound)
	}
	if !component.State().IsOperational() {
		return nil, &domain.InvalidOperationError{
			ID:        id,
			Operation: "process",
			State:     string(component.State()),
		}
	}

	p.mu.Lock()
	validators := append([]Validator(nil), p.validators[id.String()]...)
	transformers := append([]Transformer(nil), p.transformers[id.String()]...)
	p.mu.Unlock()

	for _, validate := range validators {
		if err := validate(data); err != nil {
			p.logger.Debug("stage rejected payload",
				"component_id", id.ShortID(),
				"err", err,
			)
			return nil, fmt.Errorf("stage %s: %w: %w", id.ShortID(), ErrValidationFailed, err)
		}
	}

	out := data
	for _, transform := range transformers {
		var err error
		out, err = transform(out)
		if err != nil {
			return nil, fmt.Errorf("stage %s: transform: %w", id.ShortID(), err)
		}
	}
	return out, nil
}

// downstream returns the targets of the active outgoing data-flow
// connections, in connection order.
func (p *Pipeline) downstream(id domain.ComponentID) []domain.ComponentID {
	var targets []domain.ComponentID
	for _, conn := range p.composite.ConnectionsByType(domain.ConnectionDataFlow) {
		if conn.SourceID().Equals(id) && conn.Active() {
			targets = append(targets, conn.TargetID())
		}
	}
	return targets
}
