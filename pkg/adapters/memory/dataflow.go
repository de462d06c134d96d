package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/s8r-framework/s8r/pkg/domain"
	"github.com/s8r-framework/s8r/pkg/ports"
)

// DataFlow is an in-process pub/sub hub for component data events.
// Delivery is synchronous and skips the publishing component, so a
// component never receives its own data back.
type DataFlow struct {
	mu     sync.RWMutex
	subs   map[string]map[string]ports.DataHandler // channel -> component UUID -> handler
	logger *slog.Logger
}

// NewDataFlow returns an empty data flow hub.
func NewDataFlow(logger *slog.Logger) *DataFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataFlow{
		subs:   make(map[string]map[string]ports.DataHandler),
		logger: logger,
	}
}

var _ ports.DataFlowPort = (*DataFlow)(nil)

func (f *DataFlow) Publish(ctx context.Context, event domain.ComponentDataEvent) error {
	if event.Channel() == "" {
		return fmt.Errorf("publish: empty channel")
	}

	f.mu.RLock()
	channel := f.subs[event.Channel()]
	handlers := make([]ports.DataHandler, 0, len(channel))
	for id, h := range channel {
		if id == event.SourceID().String() {
			continue
		}
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		f.deliver(ctx, h, event)
	}
	return nil
}

func (f *DataFlow) Subscribe(componentID domain.ComponentID, channel string, handler ports.DataHandler) error {
	if channel == "" {
		return fmt.Errorf("subscribe: empty channel")
	}
	if handler == nil {
		return fmt.Errorf("subscribe: nil handler")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[channel] == nil {
		f.subs[channel] = make(map[string]ports.DataHandler)
	}
	f.subs[channel][componentID.String()] = handler
	return nil
}

func (f *DataFlow) Unsubscribe(componentID domain.ComponentID, channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[channel], componentID.String())
	if len(f.subs[channel]) == 0 {
		delete(f.subs, channel)
	}
}

func (f *DataFlow) UnsubscribeAll(componentID domain.ComponentID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for channel, subs := range f.subs {
		delete(subs, componentID.String())
		if len(subs) == 0 {
			delete(f.subs, channel)
		}
	}
}

func (f *DataFlow) Channels() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.subs))
	for channel := range f.subs {
		out = append(out, channel)
	}
	sort.Strings(out)
	return out
}

func (f *DataFlow) SubscriptionsOf(componentID domain.ComponentID) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []string
	for channel, subs := range f.subs {
		if _, ok := subs[componentID.String()]; ok {
			out = append(out, channel)
		}
	}
	sort.Strings(out)
	return out
}

func (f *DataFlow) deliver(ctx context.Context, h ports.DataHandler, event domain.ComponentDataEvent) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("data handler panicked",
				"channel", event.Channel(),
				"source", event.SourceID().ShortID(),
				"panic", r)
		}
	}()
	h(ctx, event)
}
