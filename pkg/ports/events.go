package ports

import (
	"context"

	"github.com/s8r-framework/s8r/pkg/domain"
)

// EventHandler consumes a dispatched domain event.
type EventHandler func(ctx context.Context, event domain.Event)

// EventDispatcher routes domain events to subscribed handlers.
type EventDispatcher interface {
	// Subscribe registers a handler for an event type (see the
	// domain.EventType* constants). Multiple handlers per type are
	// delivered in subscription order.
	Subscribe(eventType string, handler EventHandler)

	// Dispatch delivers one event to all matching handlers. A panicking
	// handler must not prevent delivery to the remaining handlers.
	Dispatch(ctx context.Context, event domain.Event)
}

// EventPublisher publishes batches of drained entity events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}
