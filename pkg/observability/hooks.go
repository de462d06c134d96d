package observability

import (
	"context"

	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/ports"
)

// RegisterMetricsHandlers subscribes metric-recording handlers for the
// domain event types on the given dispatcher.
func RegisterMetricsHandlers(dispatcher ports.EventDispatcher) {
	dispatcher.Subscribe(domain.EventTypeComponentStateChanged, func(ctx context.Context, e domain.Event) {
		sc, ok := e.(domain.ComponentStateChangedEvent)
		if !ok {
			return
		}
		RecordComponentTransition(string(sc.PreviousState()), string(sc.NewState()))
		switch {
		case sc.NewState() == domain.StateActive:
			ActiveComponents.Inc()
		case sc.PreviousState() == domain.StateActive:
			ActiveComponents.Dec()
		}
	})

	dispatcher.Subscribe(domain.EventTypeMachineStateChanged, func(ctx context.Context, e domain.Event) {
		sc, ok := e.(domain.MachineStateChangedEvent)
		if !ok {
			return
		}
		RecordMachineTransition(string(sc.PreviousState()), string(sc.NewState()))
	})

	dispatcher.Subscribe(domain.EventTypeComponentData, func(ctx context.Context, e domain.Event) {
		RecordDataEvent()
	})
}
