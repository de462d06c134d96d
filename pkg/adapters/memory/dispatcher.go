package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/ports"
)

// Dispatcher delivers domain events synchronously, in subscription
// order. Handler panics are recovered and logged so one misbehaving
// subscriber cannot starve the rest.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	logger   *slog.Logger
}

// NewDispatcher returns an empty synchronous dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[string][]ports.EventHandler),
		logger:   logger,
	}
}

var _ ports.EventDispatcher = (*Dispatcher)(nil)
var _ ports.EventPublisher = (*Dispatcher)(nil)

func (d *Dispatcher) Subscribe(eventType string, handler ports.EventHandler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event) {
	d.mu.RLock()
	handlers := d.handlers[event.EventType()]
	d.mu.RUnlock()

	for _, h := range handlers {
		d.invoke(ctx, h, event)
	}
}

// Publish dispatches a batch of drained entity events.
func (d *Dispatcher) Publish(ctx context.Context, events ...domain.Event) error {
	for _, e := range events {
		d.Dispatch(ctx, e)
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, h ports.EventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"panic", r)
		}
	}()
	h(ctx, event)
}
