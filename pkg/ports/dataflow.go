package ports

import (
	"context"

	"github.com/s8r-framework/s8r/pkg/domain"
)

// DataHandler consumes data events delivered on a subscribed channel.
type DataHandler func(ctx context.Context, event domain.ComponentDataEvent)

// DataFlowPort is the channel-based pub/sub fabric between components.
type DataFlowPort interface {
	// Publish delivers a data event to every subscriber of its channel,
	// except the publishing component itself.
	Publish(ctx context.Context, event domain.ComponentDataEvent) error

	// Subscribe registers a component's handler on a channel.
	Subscribe(componentID domain.ComponentID, channel string, handler DataHandler) error

	// Unsubscribe removes a component's subscription from a channel.
	Unsubscribe(componentID domain.ComponentID, channel string)

	// UnsubscribeAll removes every subscription of a component.
	UnsubscribeAll(componentID domain.ComponentID)

	// Channels returns every channel with at least one subscriber.
	Channels() []string

	// SubscriptionsOf returns the channels a component subscribes to.
	SubscriptionsOf(componentID domain.ComponentID) []string
}
